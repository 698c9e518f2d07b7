package app

import (
	"fmt"

	timelineRepository "github.com/gsPatrick/garimponos-sign/internal/timeline/repository"
	timelineUsecase "github.com/gsPatrick/garimponos-sign/internal/timeline/usecase"
)

// EventRepository returns the timeline event repository instance.
func (c *Container) EventRepository() (timelineUsecase.EventRepository, error) {
	var err error
	c.eventRepoInit.Do(func() {
		c.eventRepo, err = c.initEventRepository()
		if err != nil {
			c.initErrors["eventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.eventRepo, nil
}

// TimelineUseCase returns the timeline use case instance.
func (c *Container) TimelineUseCase() (timelineUsecase.TimelineUseCase, error) {
	var err error
	c.timelineUseCaseInit.Do(func() {
		c.timelineUseCase, err = c.initTimelineUseCase()
		if err != nil {
			c.initErrors["timelineUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["timelineUseCase"]; exists {
		return nil, storedErr
	}
	return c.timelineUseCase, nil
}

// initEventRepository creates the timeline event repository instance.
func (c *Container) initEventRepository() (timelineUsecase.EventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return timelineRepository.NewMySQLEventRepository(db), nil
	case "postgres":
		return timelineRepository.NewPostgreSQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTimelineUseCase creates the timeline use case with its dependencies.
func (c *Container) initTimelineUseCase() (timelineUsecase.TimelineUseCase, error) {
	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for timeline use case: %w", err)
	}

	return timelineUsecase.NewTimelineUseCase(eventRepo), nil
}
