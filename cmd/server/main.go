package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"social-chat/app"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run keeps every defer of the startup path alive until the process exits.
func run() (int, error) {
	config, err := loadConfig()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	application, err := app.New(config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("Closing stores failed", "error", err)
		}
	}()

	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return exitRuntime, err
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}
