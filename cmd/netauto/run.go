// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/cli"
	"github.com/H0llyW00dzZ/ios-netauto-mcp/src/logger"
	verpkg "github.com/H0llyW00dzZ/ios-netauto-mcp/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx, version, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			// Failed reports were already printed in full.
			if !errors.Is(err, cli.ErrOperationFailed) {
				log.Errorf("netauto failed: %v", err)
			}
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Println("Operation cancelled by signal. Closing connections...")
		// Give the runtime a moment to close its SSH sessions.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		os.Exit(130)
	}

	if cli.OperationPerformed && cli.OperationPerformedSuccessfully {
		log.Println("Device operation completed successfully.")
	}
}
