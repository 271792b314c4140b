// Package container provides dependency injection for the recurring-ledger
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/recurring-ledger/internal/clock"
	"fjacquet/recurring-ledger/internal/config"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/report"
	"fjacquet/recurring-ledger/internal/service"
	"fjacquet/recurring-ledger/internal/store"
	"fjacquet/recurring-ledger/internal/store/sqlite"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	clock     clock.Clock
	store     store.Store
	service   *service.Service
	generator *report.Generator
}

// Option overrides a dependency that NewContainer would otherwise build.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(ct *Container) { ct.clock = c }
}

// WithLogger replaces the logger built from the log configuration.
func WithLogger(l logging.Logger) Option {
	return func(ct *Container) { ct.logger = l }
}

// WithStore replaces the SQLite store opened at database.path.
func WithStore(s store.Store) Option {
	return func(ct *Container) { ct.store = s }
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	}
	if c.clock == nil {
		c.clock = clock.System{}
	}
	if c.store == nil {
		st, err := sqlite.Open(cfg.Database.Path, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		c.store = st
	}

	c.service = service.New(c.store, c.clock, c.logger, ServiceOptions(cfg))
	c.generator = report.NewGenerator(cfg.Output.CSVDelimiter)

	c.logger.Debug("Container initialized successfully",
		logging.Field{Key: logging.FieldDatabase, Value: cfg.Database.Path},
		logging.Field{Key: logging.FieldMode, Value: cfg.Recurring.DiscardMode})

	return c, nil
}

// ServiceOptions maps the recurring section of cfg onto service options.
func ServiceOptions(cfg *config.Config) service.Options {
	r := cfg.Recurring
	return service.Options{
		ToleranceDays:           r.MatchToleranceDays,
		LookbackMonths:          r.LookbackMonths,
		LookaheadMonths:         r.LookaheadMonths,
		RequireMerchant:         r.RequireMerchant,
		RejectDuplicateApproval: r.RejectDuplicateApproval,
		DiscardMode:             service.DiscardMode(r.DiscardMode),
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetClock returns the clock every "today" is derived from.
func (c *Container) GetClock() clock.Clock {
	return c.clock
}

// GetStore returns the persistence layer.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetService returns the recurring-rule service.
func (c *Container) GetService() *service.Service {
	return c.service
}

// GetReportGenerator returns the renderer for occurrence listings.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.generator
}

// Close releases the store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
