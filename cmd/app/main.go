package main

import (
	"tripmarket/config"
	"tripmarket/di"
	"tripmarket/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
