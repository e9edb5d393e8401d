package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"devmanager/internal/errors"
	"devmanager/internal/executor"
	"devmanager/internal/lazy"
	"devmanager/internal/validation"
)

// ContainerCounter counts running containers whose name matches a filter
type ContainerCounter interface {
	Count(ctx context.Context, nameFilter string) (int, error)
}

// CLICounter counts containers through `docker ps`
type CLICounter struct {
	executor executor.Executor
	timeout  time.Duration
}

// NewCLICounter creates a counter that shells out to the docker CLI
func NewCLICounter(exec executor.Executor, timeout time.Duration) *CLICounter {
	return &CLICounter{executor: exec, timeout: timeout}
}

// Count implements ContainerCounter
func (c *CLICounter) Count(ctx context.Context, nameFilter string) (int, error) {
	cmd := fmt.Sprintf("docker ps --filter %s --format '{{.Names}}'", validation.ShellEscape("name="+nameFilter))
	result, err := c.executor.Run(ctx, cmd, c.timeout)
	if err != nil {
		return 0, err
	}
	if !result.Success() {
		return 0, errors.CommandFailed("docker", "ps", result.ExitCode, result.Output)
	}

	count := 0
	for _, line := range strings.Split(result.Output, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}

// ContainerLister is the part of the Docker Engine API client the counter uses
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	Close() error
}

// APICounter counts containers through the Docker Engine API. The client is
// created on first use, so a missing daemon only matters to services that
// declare a container precondition.
type APICounter struct {
	client *lazy.Lazy[ContainerLister]
}

// NewAPICounter creates a counter using the environment's Docker settings
func NewAPICounter() *APICounter {
	return NewAPICounterWith(func(ctx context.Context) (ContainerLister, error) {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, errors.Wrap(errors.ErrExecution, "Failed to create Docker client", err)
		}
		return cli, nil
	})
}

// NewAPICounterWith creates a counter with a custom client loader
func NewAPICounterWith(loader lazy.Loader[ContainerLister]) *APICounter {
	return &APICounter{client: lazy.New(loader)}
}

// Count implements ContainerCounter
func (c *APICounter) Count(ctx context.Context, nameFilter string) (int, error) {
	cli, err := c.client.Get(ctx)
	if err != nil {
		return 0, err
	}

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", nameFilter)),
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrExecution, "Failed to list containers", err)
	}
	return len(containers), nil
}

// Close releases the Docker client if one was created
func (c *APICounter) Close() error {
	if cli, ok := c.client.Reset(); ok && cli != nil {
		return cli.Close()
	}
	return nil
}
