package app

import (
	"fmt"
	"time"

	dispatchHTTP "github.com/gsPatrick/garimponos-sign/internal/dispatch/http"
	dispatchRepository "github.com/gsPatrick/garimponos-sign/internal/dispatch/repository"
	dispatchService "github.com/gsPatrick/garimponos-sign/internal/dispatch/service"
	dispatchUsecase "github.com/gsPatrick/garimponos-sign/internal/dispatch/usecase"
)

// webhookNotifierTimeout bounds a single notification POST to the external
// notification service.
const webhookNotifierTimeout = 10 * time.Second

// DeliveryRepository returns the delivery repository instance.
func (c *Container) DeliveryRepository() (dispatchUsecase.DeliveryRepository, error) {
	var err error
	c.deliveryRepoInit.Do(func() {
		c.deliveryRepo, err = c.initDeliveryRepository()
		if err != nil {
			c.initErrors["deliveryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deliveryRepo"]; exists {
		return nil, storedErr
	}
	return c.deliveryRepo, nil
}

// Notifier returns the delivery notifier instance.
func (c *Container) Notifier() (dispatchService.Notifier, error) {
	var err error
	c.notifierInit.Do(func() {
		c.notifier, err = c.initNotifier()
		if err != nil {
			c.initErrors["notifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["notifier"]; exists {
		return nil, storedErr
	}
	return c.notifier, nil
}

// DispatchUseCase returns the dispatch use case instance.
func (c *Container) DispatchUseCase() (dispatchUsecase.DispatchUseCase, error) {
	var err error
	c.dispatchUseCaseInit.Do(func() {
		c.dispatchUseCase, err = c.initDispatchUseCase()
		if err != nil {
			c.initErrors["dispatchUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatchUseCase"]; exists {
		return nil, storedErr
	}
	return c.dispatchUseCase, nil
}

// DeliveryHandler returns the delivery HTTP handler instance.
func (c *Container) DeliveryHandler() (*dispatchHTTP.DeliveryHandler, error) {
	var err error
	c.deliveryHandlerInit.Do(func() {
		c.deliveryHandler, err = c.initDeliveryHandler()
		if err != nil {
			c.initErrors["deliveryHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deliveryHandler"]; exists {
		return nil, storedErr
	}
	return c.deliveryHandler, nil
}

// initDeliveryRepository creates the delivery repository instance.
func (c *Container) initDeliveryRepository() (dispatchUsecase.DeliveryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for delivery repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return dispatchRepository.NewMySQLDeliveryRepository(db), nil
	case "postgres":
		return dispatchRepository.NewPostgreSQLDeliveryRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initNotifier creates the delivery notifier. Deliveries are posted to the
// configured webhook; without a webhook URL they are only logged.
func (c *Container) initNotifier() (dispatchService.Notifier, error) {
	if c.config.NotificationWebhookURL == "" {
		return dispatchService.NewLogNotifier(c.Logger()), nil
	}
	return dispatchService.NewWebhookNotifier(c.config.NotificationWebhookURL, webhookNotifierTimeout), nil
}

// initDispatchUseCase creates the dispatch use case with all its dependencies.
func (c *Container) initDispatchUseCase() (dispatchUsecase.DispatchUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dispatch use case: %w", err)
	}

	deliveryRepo, err := c.DeliveryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery repository for dispatch use case: %w", err)
	}

	signerRepo, err := c.SignerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer repository for dispatch use case: %w", err)
	}

	documentRepo, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for dispatch use case: %w", err)
	}

	timeline, err := c.TimelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline use case for dispatch use case: %w", err)
	}

	notifier, err := c.Notifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifier for dispatch use case: %w", err)
	}

	useCaseConfig := dispatchUsecase.Config{
		Interval:    c.config.DispatchWorkerInterval,
		BatchSize:   c.config.DispatchWorkerBatchSize,
		MaxAttempts: c.config.DispatchWorkerMaxRetries,
	}

	useCase := dispatchUsecase.NewDispatchUseCase(
		useCaseConfig,
		txManager,
		deliveryRepo,
		signerRepo,
		documentRepo,
		timeline,
		notifier,
		c.Logger(),
	)

	return useCase, nil
}

// initDeliveryHandler creates the delivery HTTP handler.
func (c *Container) initDeliveryHandler() (*dispatchHTTP.DeliveryHandler, error) {
	useCase, err := c.DispatchUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatch use case for delivery handler: %w", err)
	}

	return dispatchHTTP.NewDeliveryHandler(useCase, c.Logger()), nil
}
