package serialmon

import (
	"fmt"
)

// ValidateConfig validates serial port configuration parameters
func ValidateConfig(cfg *Config) error {
	// Validate port name
	if cfg.PortName == "" {
		return fmt.Errorf("port name cannot be empty")
	}

	// Validate baud rate
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d, must be positive", cfg.BaudRate)
	}

	// Validate data bits
	if !DataBits(cfg.DataBits).Valid() {
		return fmt.Errorf("data bits must be 5-8, got: %d", cfg.DataBits)
	}

	if !cfg.Parity.Valid() {
		return fmt.Errorf("invalid parity value: %d", cfg.Parity)
	}

	if cfg.StopBits.String() == "?" {
		return fmt.Errorf("invalid stop bits value: %d", cfg.StopBits)
	}

	// Validate timeouts
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive: %v", cfg.ReadTimeout)
	}
	if cfg.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative: %v", cfg.SettleDelay)
	}

	if cfg.MaxLines < 0 {
		return fmt.Errorf("max lines cannot be negative: %d", cfg.MaxLines)
	}
	if cfg.MaxLineSize < 0 || cfg.MaxLineSize > MaxBufferSize {
		return fmt.Errorf("max line size must be 0-%d, got: %d", MaxBufferSize, cfg.MaxLineSize)
	}

	if _, err := LookupDriver(cfg.Driver); err != nil {
		return err
	}
	if _, err := NewDecoder(cfg.Encoding); err != nil {
		return err
	}

	return nil
}
