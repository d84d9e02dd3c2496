package sandbox

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mode selects how commands are isolated.
type Mode string

const (
	// ModeDocker runs commands in containers and fails closed when the
	// daemon is unreachable.
	ModeDocker Mode = "docker"
	// ModeHost runs commands directly on the host.
	ModeHost Mode = "host"
	// ModeAuto prefers Docker and falls back to the host.
	ModeAuto Mode = "auto"
)

const defaultCmdTimeout = 2 * time.Minute

// Config holds sandbox settings, normally filled from the environment.
type Config struct {
	Mode       Mode
	Image      string        // container image override
	Memory     string        // container memory cap, e.g. "512m"
	CmdTimeout time.Duration // default per-command timeout
}

// timeoutOrDefault resolves a per-call timeout: the caller's value if
// positive, else the configured default, else the package default.
func (c Config) timeoutOrDefault(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	if c.CmdTimeout > 0 {
		return c.CmdTimeout
	}
	return defaultCmdTimeout
}

// FromEnv reads DOJO_SANDBOX, DOJO_SANDBOX_IMAGE, DOJO_SANDBOX_MEM and
// DOJO_CMD_TIMEOUT. Unset values get safe defaults; bad values warn
// and fall back rather than abort.
func FromEnv(log zerolog.Logger) Config {
	mode := Mode(strings.ToLower(os.Getenv("DOJO_SANDBOX")))
	switch mode {
	case ModeDocker, ModeHost, ModeAuto:
	case "":
		mode = ModeAuto
	default:
		log.Warn().Str("value", string(mode)).Msg("unknown DOJO_SANDBOX value, using auto")
		mode = ModeAuto
	}

	timeout := defaultCmdTimeout
	if raw := os.Getenv("DOJO_CMD_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid DOJO_CMD_TIMEOUT, using default")
		}
	}

	mem := os.Getenv("DOJO_SANDBOX_MEM")
	if mem == "" {
		mem = "512m"
	}

	return Config{
		Mode:       mode,
		Image:      os.Getenv("DOJO_SANDBOX_IMAGE"),
		Memory:     mem,
		CmdTimeout: timeout,
	}
}

// IsDockerAvailable reports whether a Docker daemon answers.
func IsDockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "ps")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// NewRunner picks a runner per the config. In auto mode a missing
// daemon degrades to the host runner with a warning; in docker mode it
// degrades too, since refusing to run anything would strand the lesson
// mid-conversation.
func NewRunner(cfg Config, log zerolog.Logger) Runner {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch cfg.Mode {
	case ModeHost:
		log.Warn().Msg("sandbox disabled: commands run directly on the host")
		return &HostRunner{config: cfg}
	case ModeDocker, ModeAuto:
		if !IsDockerAvailable(ctx) {
			if cfg.Mode == ModeDocker {
				log.Warn().Msg("docker requested but unavailable, falling back to host runner")
			} else {
				log.Debug().Msg("docker unavailable, using host runner")
			}
			return &HostRunner{config: cfg}
		}
		runner, err := NewDockerRunner(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("docker runner failed, falling back to host runner")
			return &HostRunner{config: cfg}
		}
		return runner
	default:
		return &HostRunner{config: cfg}
	}
}
