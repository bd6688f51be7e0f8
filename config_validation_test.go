package serialmon

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.PortName = "COM1"
	return cfg
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	cfg := validConfig()

	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidateConfig_EmptyPortName(t *testing.T) {
	cfg := validConfig()
	cfg.PortName = ""

	err := ValidateConfig(&cfg)
	if err == nil {
		t.Fatal("expected error for empty port name")
	}
	if !strings.Contains(err.Error(), "port name cannot be empty") {
		t.Fatalf("expected 'port name cannot be empty' error, got: %v", err)
	}
}

func TestValidateConfig_InvalidBaudRate(t *testing.T) {
	tests := []struct {
		baudRate int
		wantErr  bool
	}{
		{1200, false},   // Valid
		{9600, false},   // Valid
		{115200, false}, // Valid
		{74880, false},  // Non-standard but positive (ESP8266 boot ROM)
		{0, true},       // Invalid
		{-9600, true},   // Invalid
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.BaudRate = tt.baudRate

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("baudRate=%d: wantErr=%v, got=%v", tt.baudRate, tt.wantErr, err)
		}
		if tt.wantErr && !strings.Contains(err.Error(), "invalid baud rate") {
			t.Fatalf("baudRate=%d: expected 'invalid baud rate' error, got: %v", tt.baudRate, err)
		}
	}
}

func TestValidateConfig_InvalidDataBits(t *testing.T) {
	tests := []struct {
		dataBits int
		wantErr  bool
	}{
		{4, true},  // Too small
		{5, false}, // Valid
		{6, false}, // Valid
		{7, false}, // Valid
		{8, false}, // Valid
		{9, true},  // Too large
		{0, true},  // Invalid
		{-1, true}, // Invalid
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.DataBits = tt.dataBits

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("dataBits=%d: wantErr=%v, got=%v", tt.dataBits, tt.wantErr, err)
		}
		if tt.wantErr && !strings.Contains(err.Error(), "data bits must be 5-8") {
			t.Fatalf("dataBits=%d: expected 'data bits' error, got: %v", tt.dataBits, err)
		}
	}
}

func TestValidateConfig_InvalidParity(t *testing.T) {
	tests := []struct {
		parity  Parity
		wantErr bool
	}{
		{ParityNone, false},  // Valid
		{ParityOdd, false},   // Valid
		{ParityEven, false},  // Valid
		{ParityMark, false},  // Valid
		{ParitySpace, false}, // Valid
		{Parity(99), true},   // Invalid
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Parity = tt.parity

		err := ValidateConfig(&cfg)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parity=%d: wantErr=%v, got=%v", tt.parity, tt.wantErr, err)
		}
		if tt.wantErr && !strings.Contains(err.Error(), "invalid parity") {
			t.Fatalf("parity=%d: expected 'invalid parity' error, got: %v", tt.parity, err)
		}
	}
}

func TestValidateConfig_InvalidStopBits(t *testing.T) {
	cfg := validConfig()
	cfg.StopBits = StopBits(7)

	err := ValidateConfig(&cfg)
	if err == nil || !strings.Contains(err.Error(), "invalid stop bits") {
		t.Fatalf("expected 'invalid stop bits' error, got: %v", err)
	}
}

func TestValidateConfig_Timeouts(t *testing.T) {
	cfg := validConfig()
	cfg.ReadTimeout = 0
	if err := ValidateConfig(&cfg); err == nil || !strings.Contains(err.Error(), "read timeout must be positive") {
		t.Fatalf("expected read timeout error, got: %v", err)
	}

	cfg = validConfig()
	cfg.SettleDelay = -time.Second
	if err := ValidateConfig(&cfg); err == nil || !strings.Contains(err.Error(), "settle delay cannot be negative") {
		t.Fatalf("expected settle delay error, got: %v", err)
	}

	cfg = validConfig()
	cfg.SettleDelay = 0
	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("zero settle delay should be valid, got: %v", err)
	}
}

func TestValidateConfig_Limits(t *testing.T) {
	cfg := validConfig()
	cfg.MaxLines = -1
	if err := ValidateConfig(&cfg); err == nil {
		t.Fatal("expected error for negative max lines")
	}

	cfg = validConfig()
	cfg.MaxLineSize = MaxBufferSize + 1
	if err := ValidateConfig(&cfg); err == nil || !strings.Contains(err.Error(), "max line size") {
		t.Fatalf("expected max line size error, got: %v", err)
	}
}

func TestValidateConfig_DriverAndEncoding(t *testing.T) {
	cfg := validConfig()
	cfg.Driver = "missing"
	if err := ValidateConfig(&cfg); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got: %v", err)
	}

	cfg = validConfig()
	cfg.Encoding = "klingon"
	if err := ValidateConfig(&cfg); !errors.Is(err, ErrUnknownEncoding) {
		t.Fatalf("expected ErrUnknownEncoding, got: %v", err)
	}
}

func TestParseHelpers(t *testing.T) {
	if b, err := ParseBaudRate(" 115200 "); err != nil || b != Baud115200 {
		t.Fatalf("ParseBaudRate: got %v, %v", b, err)
	}
	for _, bad := range []string{"", "fast", "0", "-1"} {
		if _, err := ParseBaudRate(bad); err == nil {
			t.Fatalf("ParseBaudRate(%q): expected error", bad)
		}
	}
	if !Baud9600.IsStandard() || BaudRate(74880).IsStandard() {
		t.Fatal("IsStandard misclassified a rate")
	}

	if p, err := ParseParity("e"); err != nil || p != ParityEven {
		t.Fatalf("ParseParity: got %v, %v", p, err)
	}
	if _, err := ParseParity("X"); err == nil {
		t.Fatal("ParseParity: expected error")
	}
	if ParityMark.Letter() != "M" {
		t.Fatalf("unexpected letter %q", ParityMark.Letter())
	}

	if sb, err := ParseStopBits("1.5"); err != nil || sb != StopBits1Half {
		t.Fatalf("ParseStopBits: got %v, %v", sb, err)
	}
	if _, err := ParseStopBits("3"); err == nil {
		t.Fatal("ParseStopBits: expected error")
	}
}
