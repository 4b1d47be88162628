package shared_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"
	"tripmarket/shared"
	"tripmarket/shared/constant"
	"tripmarket/shared/dto"
	"tripmarket/shared/failure"
)

func TestConvertStringToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *bool
	}{
		{
			name:     "empty string returns nil",
			input:    "",
			expected: nil,
		},
		{
			name:     "valid true string",
			input:    "true",
			expected: boolPtr(true),
		},
		{
			name:     "valid false string",
			input:    "false",
			expected: boolPtr(false),
		},
		{
			name:     "valid 1 string",
			input:    "1",
			expected: boolPtr(true),
		},
		{
			name:     "valid 0 string",
			input:    "0",
			expected: boolPtr(false),
		},
		{
			name:     "valid T string",
			input:    "T",
			expected: boolPtr(true),
		},
		{
			name:     "valid FALSE string",
			input:    "FALSE",
			expected: boolPtr(false),
		},
		{
			name:     "invalid string returns nil",
			input:    "invalid",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.ConvertStringToBool(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %v", *result)
				}
			} else {
				if result == nil {
					t.Errorf("expected %v, got nil", *tt.expected)
				} else if *result != *tt.expected {
					t.Errorf("expected %v, got %v", *tt.expected, *result)
				}
			}
		})
	}
}

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{
			name:     "zero total returns 1",
			total:    0,
			limit:    10,
			expected: 1,
		},
		{
			name:     "zero limit returns 1",
			total:    100,
			limit:    0,
			expected: 1,
		},
		{
			name:     "negative limit returns 1",
			total:    100,
			limit:    -5,
			expected: 1,
		},
		{
			name:     "exact division",
			total:    100,
			limit:    10,
			expected: 10,
		},
		{
			name:     "division with remainder",
			total:    101,
			limit:    10,
			expected: 11,
		},
		{
			name:     "limit greater than total",
			total:    5,
			limit:    10,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.CalculateTotalPage(tt.total, tt.limit)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type TestStruct struct {
		ID         int    `db:"id"`
		Name       string `db:"name"`
		Email      string `db:"email"`
		EmptyField string `db:"empty_field"`
		NoDBTag    string
	}

	tests := []struct {
		name     string
		data     interface{}
		username string
		expected map[string]any
	}{
		{
			name: "struct with populated fields",
			data: TestStruct{
				ID:         1,
				Name:       "Island Hopper",
				Email:      "hello@islandhopper.example",
				EmptyField: "",
				NoDBTag:    "ignored",
			},
			username: "auth0|owner-1",
			expected: map[string]any{
				"id":    1,
				"name":  "Island Hopper",
				"email": "hello@islandhopper.example",
			},
		},
		{
			name:     "struct with all zero values",
			data:     TestStruct{},
			username: "auth0|owner-1",
			expected: map[string]any{},
		},
		{
			name: "struct with partial fields",
			data: TestStruct{
				Name: "Highland Treks",
			},
			username: "auth0|owner-2",
			expected: map[string]any{
				"name": "Highland Treks",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.TransformFields(tt.data, tt.username)

			if result[constant.FieldModifiedAt] == nil {
				t.Error("expected modified_at to be set")
			}

			if result[constant.FieldModifiedBy] != tt.username {
				t.Errorf("expected modified_by to be %s, got %v", tt.username, result[constant.FieldModifiedBy])
			}

			if _, ok := result[constant.FieldModifiedAt].(time.Time); !ok {
				t.Error("expected modified_at to be a time.Time")
			}

			for key, expectedValue := range tt.expected {
				if actualValue, exists := result[key]; !exists {
					t.Errorf("expected field %s to exist", key)
				} else if !reflect.DeepEqual(actualValue, expectedValue) {
					t.Errorf("expected field %s to be %v, got %v", key, expectedValue, actualValue)
				}
			}

			for key := range result {
				if key == constant.FieldModifiedAt || key == constant.FieldModifiedBy {
					continue
				}
				if _, expected := tt.expected[key]; !expected {
					t.Errorf("unexpected field %s in result", key)
				}
			}
		})
	}
}

func TestFilterByID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		fieldID  string
		table    string
		expected dto.FilterGroup
	}{
		{
			name:    "basic filter by id",
			id:      "550e8400-e29b-41d4-a716-446655440000",
			fieldID: "id",
			table:   "trips",
			expected: dto.FilterGroup{
				Filters: []any{
					dto.Filter{
						Field:    "id",
						Value:    "550e8400-e29b-41d4-a716-446655440000",
						Operator: dto.FilterOperatorEq,
						Table:    "trips",
					},
				},
			},
		},
		{
			name:    "filter by owner column",
			id:      "auth0|owner-1",
			fieldID: "owner_id",
			table:   "agencies",
			expected: dto.FilterGroup{
				Filters: []any{
					dto.Filter{
						Field:    "owner_id",
						Value:    "auth0|owner-1",
						Operator: dto.FilterOperatorEq,
						Table:    "agencies",
					},
				},
			},
		},
		{
			name:    "filter with empty table",
			id:      "456",
			fieldID: "id",
			table:   "",
			expected: dto.FilterGroup{
				Filters: []any{
					dto.Filter{
						Field:    "id",
						Value:    "456",
						Operator: dto.FilterOperatorEq,
						Table:    "",
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.FilterByID(tt.id, tt.fieldID, tt.table)

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestCallerID(t *testing.T) {
	t.Run("returns subject from context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "auth0|caller-1")

		if got := shared.CallerID(ctx); got != "auth0|caller-1" {
			t.Errorf("expected auth0|caller-1, got %s", got)
		}
	})

	t.Run("returns empty for anonymous context", func(t *testing.T) {
		if got := shared.CallerID(context.Background()); got != "" {
			t.Errorf("expected empty string, got %s", got)
		}
	})
}

func TestAuthorizeOwner(t *testing.T) {
	tests := []struct {
		name         string
		caller       string
		ownerID      string
		expectedCode int
	}{
		{
			name:         "caller is the owner",
			caller:       "auth0|owner-1",
			ownerID:      "auth0|owner-1",
			expectedCode: 0,
		},
		{
			name:         "caller is not the owner",
			caller:       "auth0|intruder",
			ownerID:      "auth0|owner-1",
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "anonymous caller",
			caller:       "",
			ownerID:      "auth0|owner-1",
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.caller != "" {
				ctx = context.WithValue(ctx, constant.ContextKeyUserID, tt.caller)
			}

			err := shared.AuthorizeOwner(ctx, tt.ownerID)

			if tt.expectedCode == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}

				return
			}

			if err == nil {
				t.Fatal("expected an error, got nil")
			}

			if code := failure.GetCode(err); code != tt.expectedCode {
				t.Errorf("expected code %d, got %d", tt.expectedCode, code)
			}

			if tt.expectedCode == http.StatusForbidden && !errors.Is(err, failure.ResourceRestrictedError) {
				t.Error("expected ResourceRestrictedError")
			}
		})
	}
}

func TestBuildCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{
			name:     "joins parts with colon",
			parts:    []string{"trip", "get", "123"},
			expected: "trip:get:123",
		},
		{
			name:     "single part",
			parts:    []string{"limiter"},
			expected: "limiter",
		},
		{
			name:     "owner lookup key",
			parts:    []string{"agency", "owner", "auth0|owner-1"},
			expected: "agency:owner:auth0|owner-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.BuildCacheKey(tt.parts...); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// Helper functions for creating pointers
func boolPtr(b bool) *bool {
	return &b
}
