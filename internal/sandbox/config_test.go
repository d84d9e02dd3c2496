package sandbox

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DOJO_SANDBOX", "")
	t.Setenv("DOJO_SANDBOX_IMAGE", "")
	t.Setenv("DOJO_SANDBOX_MEM", "")
	t.Setenv("DOJO_CMD_TIMEOUT", "")

	cfg := FromEnv(zerolog.Nop())
	if cfg.Mode != ModeAuto {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeAuto)
	}
	if cfg.Image != "" {
		t.Errorf("Image = %q, want empty", cfg.Image)
	}
	if cfg.Memory != "512m" {
		t.Errorf("Memory = %q, want 512m", cfg.Memory)
	}
	if cfg.CmdTimeout != defaultCmdTimeout {
		t.Errorf("CmdTimeout = %v, want %v", cfg.CmdTimeout, defaultCmdTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DOJO_SANDBOX", "HOST")
	t.Setenv("DOJO_SANDBOX_IMAGE", "python:3.11-slim")
	t.Setenv("DOJO_SANDBOX_MEM", "1g")
	t.Setenv("DOJO_CMD_TIMEOUT", "45s")

	cfg := FromEnv(zerolog.Nop())
	if cfg.Mode != ModeHost {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeHost)
	}
	if cfg.Image != "python:3.11-slim" {
		t.Errorf("Image = %q, want python:3.11-slim", cfg.Image)
	}
	if cfg.Memory != "1g" {
		t.Errorf("Memory = %q, want 1g", cfg.Memory)
	}
	if cfg.CmdTimeout != 45*time.Second {
		t.Errorf("CmdTimeout = %v, want 45s", cfg.CmdTimeout)
	}
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("DOJO_SANDBOX", "chroot")
	t.Setenv("DOJO_CMD_TIMEOUT", "soon")

	cfg := FromEnv(zerolog.Nop())
	if cfg.Mode != ModeAuto {
		t.Errorf("Mode = %q, want fallback %q", cfg.Mode, ModeAuto)
	}
	if cfg.CmdTimeout != defaultCmdTimeout {
		t.Errorf("CmdTimeout = %v, want fallback %v", cfg.CmdTimeout, defaultCmdTimeout)
	}
}

func TestTimeoutOrDefault(t *testing.T) {
	tests := []struct {
		name   string
		config time.Duration
		arg    time.Duration
		want   time.Duration
	}{
		{"caller wins", 30 * time.Second, 5 * time.Second, 5 * time.Second},
		{"config when no arg", 30 * time.Second, 0, 30 * time.Second},
		{"package default when neither", 0, 0, defaultCmdTimeout},
		{"negative arg treated as unset", 30 * time.Second, -1, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{CmdTimeout: tt.config}
			if got := c.timeoutOrDefault(tt.arg); got != tt.want {
				t.Errorf("timeoutOrDefault(%v) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}
