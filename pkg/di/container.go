// Package di wires the configured schema registry and record store together
package di

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ssargent/crunchybytes/pkg/config"
	"github.com/ssargent/crunchybytes/pkg/schema"
	"github.com/ssargent/crunchybytes/pkg/storage"
	"github.com/ssargent/crunchybytes/pkg/store"
)

// PebbleDirName is the pebble database directory inside the data directory
const PebbleDirName = "pebble"

// Container holds all the dependencies for the application. Components are
// built on first use.
type Container struct {
	cfg    *config.Config
	logger zerolog.Logger

	registry *schema.Registry
	store    store.RecordStore
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger zerolog.Logger) *Container {
	return &Container{cfg: cfg, logger: logger}
}

// Config returns the configuration the container was built with
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger returns the application logger
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Registry loads the configured schema files
func (c *Container) Registry() (*schema.Registry, error) {
	if c.registry != nil {
		return c.registry, nil
	}

	files, err := schema.ExpandFiles(c.cfg.Schemas.Files)
	if err != nil {
		return nil, err
	}
	reg, err := schema.Load(files, c.cfg.Schemas.Globals, c.logger)
	if err != nil {
		return nil, err
	}

	for _, def := range reg.Definitions() {
		if def.MaxSerialLength > c.cfg.Limits.MaxRecordSize {
			c.logger.Warn().
				Str("schema", def.FullName).
				Int("max_serial_length", def.MaxSerialLength).
				Int("max_record_size", c.cfg.Limits.MaxRecordSize).
				Msg("schema can produce records larger than the store accepts")
		}
	}

	c.registry = reg
	return reg, nil
}

// Store opens the configured storage engine
func (c *Container) Store() (store.RecordStore, error) {
	if c.store != nil {
		return c.store, nil
	}

	if err := os.MkdirAll(c.cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var (
		s   store.RecordStore
		err error
	)
	switch c.cfg.Engine {
	case config.EngineLog:
		s, err = c.openRecordLog()
	case config.EnginePebble:
		s, err = storage.NewPebbleStore(storage.PebbleConfig{
			Path:           filepath.Join(c.cfg.DataDir, PebbleDirName),
			MaxPayloadSize: c.cfg.Limits.MaxRecordSize,
			Sync:           c.cfg.Store.FsyncInterval == 0,
			Logger:         c.logger,
		})
	default:
		err = fmt.Errorf("unknown engine %q", c.cfg.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	c.store = s
	return s, nil
}

func (c *Container) openRecordLog() (*store.RecordLog, error) {
	rl, err := store.NewRecordLog(store.RecordLogConfig{
		DataDir:        c.cfg.DataDir,
		FsyncInterval:  c.cfg.Store.FsyncInterval,
		MaxPayloadSize: c.cfg.Limits.MaxRecordSize,
		Logger:         c.logger,
	})
	if err != nil {
		return nil, err
	}
	recovery, err := rl.Open()
	if err != nil {
		return nil, err
	}
	if recovery.BytesTruncated > 0 {
		c.logger.Warn().
			Int64("bytes_truncated", recovery.BytesTruncated).
			Int64("records_validated", recovery.RecordsValidated).
			Msg("recovered from corruption")
	}
	return rl, nil
}

// Close releases the store if it was opened
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
