package config

import (
	"errors"
	"fmt"
	"strings"

	"banshee/internal/codec"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Workflow.ShutdownTimeout <= 0 {
		return errors.New("workflow.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if _, err := codec.ParseFormat(c.Encoding.DefaultFormat); err != nil {
		return fmt.Errorf("encoding.default_format: %w", err)
	}
	if c.Encoding.BitrateKbps < 32 || c.Encoding.BitrateKbps > 512 {
		return errors.New("encoding.bitrate_kbps must be between 32 and 512")
	}
	if c.Encoding.DraptoPreset < 0 || c.Encoding.DraptoPreset > 13 {
		return errors.New("encoding.drapto_preset must be between 0 and 13")
	}
	return nil
}

func (c *Config) validateImport() error {
	if len(c.Import.Extensions) == 0 {
		return errors.New("import.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
