package app

import (
	"fmt"

	signingHTTP "github.com/gsPatrick/garimponos-sign/internal/signing/http"
	signingRepository "github.com/gsPatrick/garimponos-sign/internal/signing/repository"
	signingService "github.com/gsPatrick/garimponos-sign/internal/signing/service"
	signingUsecase "github.com/gsPatrick/garimponos-sign/internal/signing/usecase"
)

// SessionRepository returns the signing session repository instance.
func (c *Container) SessionRepository() (signingUsecase.SessionRepository, error) {
	var err error
	c.sessionRepoInit.Do(func() {
		c.sessionRepo, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.sessionRepo, nil
}

// TokenService returns the signing token service instance.
func (c *Container) TokenService() (signingService.TokenService, error) {
	c.tokenServiceInit.Do(func() {
		c.tokenService = signingService.NewTokenService()
	})
	return c.tokenService, nil
}

// ArtifactStore returns the signature artifact store instance.
func (c *Container) ArtifactStore() (signingService.ArtifactStore, error) {
	var err error
	c.artifactStoreInit.Do(func() {
		c.artifactStore, err = c.initArtifactStore()
		if err != nil {
			c.initErrors["artifactStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["artifactStore"]; exists {
		return nil, storedErr
	}
	return c.artifactStore, nil
}

// SessionUseCase returns the session use case instance.
func (c *Container) SessionUseCase() (signingUsecase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// SignerSessionUseCase returns the signer session use case instance.
func (c *Container) SignerSessionUseCase() (signingUsecase.SignerSessionUseCase, error) {
	var err error
	c.signerSessionUseCaseInit.Do(func() {
		c.signerSessionUseCase, err = c.initSignerSessionUseCase()
		if err != nil {
			c.initErrors["signerSessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signerSessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.signerSessionUseCase, nil
}

// SessionHandler returns the signing session HTTP handler instance.
func (c *Container) SessionHandler() (*signingHTTP.SessionHandler, error) {
	var err error
	c.sessionHandlerInit.Do(func() {
		c.sessionHandler, err = c.initSessionHandler()
		if err != nil {
			c.initErrors["sessionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}

// initSessionRepository creates the signing session repository instance.
func (c *Container) initSessionRepository() (signingUsecase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return signingRepository.NewMySQLSessionRepository(db), nil
	case "postgres":
		return signingRepository.NewPostgreSQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initArtifactStore creates the artifact store backed by the blob bucket.
func (c *Container) initArtifactStore() (signingService.ArtifactStore, error) {
	bucket, err := c.ArtifactBucket()
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact bucket for artifact store: %w", err)
	}
	return signingService.NewBlobArtifactStore(bucket), nil
}

// initSessionUseCase creates the session use case with its dependencies.
func (c *Container) initSessionUseCase() (signingUsecase.SessionUseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for session use case: %w", err)
	}

	tokens, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for session use case: %w", err)
	}

	return signingUsecase.NewSessionUseCase(sessionRepo, tokens, c.config.SigningTokenTTL), nil
}

// initSignerSessionUseCase creates the signer session use case with all its dependencies.
func (c *Container) initSignerSessionUseCase() (signingUsecase.SignerSessionUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for signer session use case: %w", err)
	}

	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for signer session use case: %w", err)
	}

	documentRepo, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for signer session use case: %w", err)
	}

	signerRepo, err := c.SignerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer repository for signer session use case: %w", err)
	}

	tokens, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for signer session use case: %w", err)
	}

	artifacts, err := c.ArtifactStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact store for signer session use case: %w", err)
	}

	otpManager, err := c.OtpUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get otp use case for signer session use case: %w", err)
	}

	timeline, err := c.TimelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline use case for signer session use case: %w", err)
	}

	useCase := signingUsecase.NewSignerSessionUseCase(
		txManager,
		sessionRepo,
		documentRepo,
		signerRepo,
		tokens,
		artifacts,
		otpManager,
		timeline,
	)

	// Wrap with metrics decorator when metrics are enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for signer session use case: %w", err)
		}
		useCase = signingUsecase.NewSignerSessionUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initSessionHandler creates the signing session HTTP handler.
func (c *Container) initSessionHandler() (*signingHTTP.SessionHandler, error) {
	useCase, err := c.SignerSessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get signer session use case for session handler: %w", err)
	}

	return signingHTTP.NewSessionHandler(useCase, c.Logger()), nil
}
