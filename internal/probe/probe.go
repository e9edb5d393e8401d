// Package probe implements the health probe strategies. Every probe ends in
// a types.ServiceStatus: failures are folded into the status, never returned.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"devmanager/internal/cache"
	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/executor"
	"devmanager/internal/logger"
	"devmanager/internal/types"
)

// Status descriptions shared by the strategies
const (
	DescRunning           = "Running"
	DescStopped           = "Stopped"
	DescStatusCheckFailed = "Status check failed"
	DescNoStatusCommand   = "No status command configured"
	DescUnexpectedOutput  = "Unexpected output"
	DescHealthy           = "Healthy"
	DescNoHealthCheck     = "No health check configured"
	DescContainersStopped = "Containers stopped"
	DescHealthTimeout     = "Health check timeout"
	DescHealthFailed      = "Health check failed"
	DescCheckFailed       = "Check failed"
)

// HTTPDoer issues health check requests
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Prober
type Options struct {
	Executor           executor.Executor
	HTTPClient         HTTPDoer
	Counter            ContainerCounter
	Defaults           config.ProbeDefaults
	ProfileListCommand string
}

// Prober dispatches a descriptor to its probe strategy
type Prober struct {
	executor    executor.Executor
	client      HTTPDoer
	counter     ContainerCounter
	defaults    config.ProbeDefaults
	listCommand string

	// listGen scopes the list cache and flight to one polling pass
	listGen    atomic.Uint64
	listCache  *cache.Cache[string, string]
	listFlight singleflight.Group
}

// New creates a Prober. Missing options fall back to defaults.
func New(opts Options) *Prober {
	if opts.Executor == nil {
		opts.Executor = executor.NewShellExecutor("")
	}
	if opts.HTTPClient == nil {
		// per-request deadlines come from the probe context
		opts.HTTPClient = &http.Client{}
	}
	if opts.Counter == nil {
		opts.Counter = NewCLICounter(opts.Executor, constants.DefaultContainerCountTimeout)
	}
	if opts.Defaults.StatusTimeout <= 0 || opts.Defaults.HTTPTimeout <= 0 {
		opts.Defaults = config.DefaultProbeDefaults()
	}
	if opts.ProfileListCommand == "" {
		opts.ProfileListCommand = constants.DefaultProfileListCommand
	}

	return &Prober{
		executor:    opts.Executor,
		client:      opts.HTTPClient,
		counter:     opts.Counter,
		defaults:    opts.Defaults,
		listCommand: opts.ProfileListCommand,
		listCache:   cache.NewCache[string, string](constants.ProfileListCacheTTL, 8),
	}
}

// Invalidate drops the cached profile list so the next probe runs the list
// command again. A list call still in flight is not joined afterwards.
func (p *Prober) Invalidate() {
	p.listGen.Add(1)
}

// Close releases the profile list cache
func (p *Prober) Close() {
	p.listCache.Close()
}

// Probe runs the strategy matching the descriptor
func (p *Prober) Probe(ctx context.Context, svc config.ServiceDescriptor) (status types.ServiceStatus) {
	log := logger.WithContext(ctx).WithField("service", svc.ID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Probe panicked")
			status = types.NewStatus(types.IconFailed, DescCheckFailed)
		}
		log.WithFields(logger.Fields{
			"icon":        status.Icon,
			"description": status.Description,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Probe finished")
	}()

	switch v := svc.Variant(p.defaults).(type) {
	case config.ProcessProbe:
		return p.probeProcess(ctx, v)
	case config.ProfileProbe:
		return p.probeProfile(ctx, v)
	case config.HTTPProbe:
		return p.probeHTTP(ctx, v)
	default:
		log.WithField("variant", fmt.Sprintf("%T", v)).Error("Unhandled probe variant")
		return types.NewStatus(types.IconFailed, DescCheckFailed)
	}
}
