package app

import (
	"fmt"

	otpRepository "github.com/gsPatrick/garimponos-sign/internal/otp/repository"
	otpService "github.com/gsPatrick/garimponos-sign/internal/otp/service"
	otpUsecase "github.com/gsPatrick/garimponos-sign/internal/otp/usecase"
)

// ChallengeRepository returns the OTP challenge repository instance.
func (c *Container) ChallengeRepository() (otpUsecase.ChallengeRepository, error) {
	var err error
	c.challengeRepoInit.Do(func() {
		c.challengeRepo, err = c.initChallengeRepository()
		if err != nil {
			c.initErrors["challengeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["challengeRepo"]; exists {
		return nil, storedErr
	}
	return c.challengeRepo, nil
}

// CodeService returns the OTP code service instance.
func (c *Container) CodeService() (otpService.CodeService, error) {
	var err error
	c.codeServiceInit.Do(func() {
		c.codeService, err = c.initCodeService()
		if err != nil {
			c.initErrors["codeService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["codeService"]; exists {
		return nil, storedErr
	}
	return c.codeService, nil
}

// OtpUseCase returns the OTP use case instance.
func (c *Container) OtpUseCase() (otpUsecase.OtpUseCase, error) {
	var err error
	c.otpUseCaseInit.Do(func() {
		c.otpUseCase, err = c.initOtpUseCase()
		if err != nil {
			c.initErrors["otpUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["otpUseCase"]; exists {
		return nil, storedErr
	}
	return c.otpUseCase, nil
}

// initChallengeRepository creates the OTP challenge repository instance.
func (c *Container) initChallengeRepository() (otpUsecase.ChallengeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for challenge repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return otpRepository.NewMySQLChallengeRepository(db), nil
	case "postgres":
		return otpRepository.NewPostgreSQLChallengeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCodeService creates the OTP code service.
func (c *Container) initCodeService() (otpService.CodeService, error) {
	codeService, err := otpService.NewCodeService(c.config.OTPCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create code service: %w", err)
	}
	return codeService, nil
}

// initOtpUseCase creates the OTP use case with all its dependencies.
// Codes are sent through the dispatch use case so they go out over the same
// delivery pipeline as invitations.
func (c *Container) initOtpUseCase() (otpUsecase.OtpUseCase, error) {
	challengeRepo, err := c.ChallengeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge repository for otp use case: %w", err)
	}

	codeService, err := c.CodeService()
	if err != nil {
		return nil, fmt.Errorf("failed to get code service for otp use case: %w", err)
	}

	codeSender, err := c.DispatchUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatch use case for otp use case: %w", err)
	}

	useCase := otpUsecase.NewOtpUseCase(
		challengeRepo,
		codeService,
		codeSender,
		c.config.OTPCodeTTL,
		c.config.OTPMaxAttempts,
	)

	return useCase, nil
}
