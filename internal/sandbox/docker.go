package sandbox

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-units"
)

// DefaultImage carries a python toolchain; only python-family modes
// expose the bash tool, so one image covers every lesson.
const DefaultImage = "python:3.12-slim"

// DockerRunner executes commands in throwaway containers with the
// working root bind-mounted, no network, and a memory cap.
type DockerRunner struct {
	client *client.Client
	config Config
}

// NewDockerRunner connects to the daemon and verifies it answers.
func NewDockerRunner(cfg Config) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &DockerRunner{client: cli, config: cfg}, nil
}

// RunCmd runs command via `sh -c` inside a fresh container.
func (r *DockerRunner) RunCmd(ctx context.Context, dir, command string, timeout time.Duration) (Result, error) {
	img := r.config.Image
	if img == "" {
		img = DefaultImage
	}
	if err := r.ensureImage(ctx, img); err != nil {
		return Result{}, fmt.Errorf("failed to ensure image %s: %w", img, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	spec, host := r.containerSpec(img, absDir, command)
	created, err := r.client.ContainerCreate(ctx, spec, host, nil, nil, "")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create container: %w", err)
	}
	id := created.ID
	defer r.removeContainer(id)

	execCtx, cancel := context.WithTimeout(ctx, r.config.timeoutOrDefault(timeout))
	defer cancel()

	if err := r.client.ContainerStart(execCtx, id, container.StartOptions{}); err != nil {
		return Result{}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(execCtx, id, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case <-execCtx.Done():
		r.killContainer(id)
		return Result{Code: -1, TimedOut: true}, nil
	case err := <-errCh:
		if err != nil {
			return Result{}, fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	stdout, stderr, err := r.collectLogs(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Stdout: stdout, Stderr: stderr, Code: int(exitCode)}, nil
}

// containerSpec builds the locked-down container: non-root user, no
// network, read-only root, capped memory, and the working root
// bind-mounted at /workspace.
func (r *DockerRunner) containerSpec(img, absDir, command string) (*container.Config, *container.HostConfig) {
	memBytes, err := units.RAMInBytes(r.config.Memory)
	if err != nil || memBytes <= 0 {
		memBytes, _ = units.RAMInBytes("512m")
	}

	spec := &container.Config{
		Image:           img,
		Cmd:             []string{"sh", "-c", command},
		WorkingDir:      "/workspace",
		User:            "1000:1000",
		Env:             []string{"HOME=/tmp"},
		NetworkDisabled: true,
	}
	host := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: absDir, Target: "/workspace"},
		},
		Resources: container.Resources{
			Memory: memBytes,
			Ulimits: []*units.Ulimit{
				{Name: "nofile", Soft: 1024, Hard: 1024},
			},
		},
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=64m",
		},
		AutoRemove: true,
	}
	return spec, host
}

func (r *DockerRunner) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

func (r *DockerRunner) killContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.client.ContainerKill(ctx, id, "SIGKILL")
}

// collectLogs reads and demultiplexes the container's combined output
// stream after it has exited.
func (r *DockerRunner) collectLogs(ctx context.Context, id string) (stdout, stderr string, err error) {
	logs, err := r.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "all",
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()
	stdout, stderr = demuxLogs(logs)
	return stdout, stderr, nil
}

// ensureImage pulls the image when it is not present locally.
func (r *DockerRunner) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := r.client.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// The pull only completes once its progress stream is drained
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// demuxLogs separates the multiplexed container log stream. Each frame
// is [stream byte][3 reserved][4-byte big-endian size][payload].
func demuxLogs(reader io.Reader) (stdout, stderr string) {
	var stdoutParts, stderrParts []string

	for {
		header := make([]byte, 8)
		if _, err := io.ReadFull(reader, header); err != nil {
			break
		}

		streamType := header[0]
		size := int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
		if size <= 0 || size > 10*1024*1024 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(reader, payload); err != nil {
			break
		}

		content := strings.TrimSuffix(string(payload), "\n")
		switch streamType {
		case 1:
			stdoutParts = append(stdoutParts, content)
		case 2:
			stderrParts = append(stderrParts, content)
		}
	}

	return strings.Join(stdoutParts, "\n"), strings.Join(stderrParts, "\n")
}
