package main

import (
	"excos_backend/internal/app"
	"excos_backend/internal/logger"
)

func main() {
	if err := app.Run(); err != nil {
		logger.Fatal("application exited with error", "error", err)
	}
}
