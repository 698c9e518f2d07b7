package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gsPatrick/garimponos-sign/internal/app"
	"github.com/gsPatrick/garimponos-sign/internal/config"
)

// RunDispatchWorker starts the delivery worker that posts queued invitations
// and OTP codes to the notification service. Blocks until SIGINT/SIGTERM.
func RunDispatchWorker(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	useCase, err := container.DispatchUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize dispatch use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := useCase.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("dispatch worker error: %w", err)
	}

	return nil
}
