package base64

import "strings"

// GetContentType extracts the mime type from a data URI such as
// "data:image/png;base64,...". Returns "" when the input is not a data URI.
func GetContentType(file string) string {
	if !strings.HasPrefix(file, "data:") {
		return ""
	}

	start := len("data:")
	end := strings.Index(file, ";base64,")

	if end == -1 || end < start {
		return ""
	}

	return file[start:end]
}
