package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gsPatrick/garimponos-sign/internal/app"
	"github.com/gsPatrick/garimponos-sign/internal/config"
)

// RunSweepExpired expires documents whose signing deadline has passed.
// Intended to run periodically (e.g., from cron). A batchSize of zero falls
// back to the configured SweepBatchSize.
func RunSweepExpired(ctx context.Context, batchSize uint) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer closeContainer(container, logger)

	if batchSize == 0 {
		batchSize = uint(cfg.SweepBatchSize)
	}

	useCase, err := container.DocumentUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize document use case: %w", err)
	}

	expired, err := useCase.SweepExpired(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to sweep expired documents: %w", err)
	}

	logger.Info("deadline sweep completed", slog.Int("documents_expired", expired))
	return nil
}
