package app

import (
	"fmt"

	documentHTTP "github.com/gsPatrick/garimponos-sign/internal/document/http"
	documentRepository "github.com/gsPatrick/garimponos-sign/internal/document/repository"
	documentUsecase "github.com/gsPatrick/garimponos-sign/internal/document/usecase"
)

// DocumentRepository returns the document repository instance.
func (c *Container) DocumentRepository() (documentUsecase.DocumentRepository, error) {
	var err error
	c.documentRepoInit.Do(func() {
		c.documentRepo, err = c.initDocumentRepository()
		if err != nil {
			c.initErrors["documentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentRepo"]; exists {
		return nil, storedErr
	}
	return c.documentRepo, nil
}

// SignerRepository returns the signer repository instance.
func (c *Container) SignerRepository() (documentUsecase.SignerRepository, error) {
	var err error
	c.signerRepoInit.Do(func() {
		c.signerRepo, err = c.initSignerRepository()
		if err != nil {
			c.initErrors["signerRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signerRepo"]; exists {
		return nil, storedErr
	}
	return c.signerRepo, nil
}

// DocumentUseCase returns the document use case instance.
func (c *Container) DocumentUseCase() (documentUsecase.DocumentUseCase, error) {
	var err error
	c.documentUseCaseInit.Do(func() {
		c.documentUseCase, err = c.initDocumentUseCase()
		if err != nil {
			c.initErrors["documentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentUseCase"]; exists {
		return nil, storedErr
	}
	return c.documentUseCase, nil
}

// DocumentHandler returns the document HTTP handler instance.
func (c *Container) DocumentHandler() (*documentHTTP.DocumentHandler, error) {
	var err error
	c.documentHandlerInit.Do(func() {
		c.documentHandler, err = c.initDocumentHandler()
		if err != nil {
			c.initErrors["documentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentHandler"]; exists {
		return nil, storedErr
	}
	return c.documentHandler, nil
}

// initDocumentRepository creates the document repository instance.
func (c *Container) initDocumentRepository() (documentUsecase.DocumentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for document repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return documentRepository.NewMySQLDocumentRepository(db), nil
	case "postgres":
		return documentRepository.NewPostgreSQLDocumentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSignerRepository creates the signer repository instance.
func (c *Container) initSignerRepository() (documentUsecase.SignerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signer repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return documentRepository.NewMySQLSignerRepository(db), nil
	case "postgres":
		return documentRepository.NewPostgreSQLSignerRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDocumentUseCase creates the document use case with all its dependencies.
func (c *Container) initDocumentUseCase() (documentUsecase.DocumentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for document use case: %w", err)
	}

	documentRepo, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for document use case: %w", err)
	}

	signerRepo, err := c.SignerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer repository for document use case: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for document use case: %w", err)
	}

	dispatcher, err := c.DispatchUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatch use case for document use case: %w", err)
	}

	timeline, err := c.TimelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline use case for document use case: %w", err)
	}

	useCase := documentUsecase.NewDocumentUseCase(
		txManager,
		documentRepo,
		signerRepo,
		sessions,
		dispatcher,
		timeline,
		c.config.PublicBaseURL,
	)

	// Wrap with metrics decorator when metrics are enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for document use case: %w", err)
		}
		useCase = documentUsecase.NewDocumentUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initDocumentHandler creates the document HTTP handler.
func (c *Container) initDocumentHandler() (*documentHTTP.DocumentHandler, error) {
	useCase, err := c.DocumentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get document use case for document handler: %w", err)
	}

	timeline, err := c.TimelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline use case for document handler: %w", err)
	}

	return documentHTTP.NewDocumentHandler(useCase, timeline, c.Logger()), nil
}
