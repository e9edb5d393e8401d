// Package monitor runs polling passes over the configured services and keeps
// the latest snapshot of their statuses.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
	"vawter.tech/stopper"

	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/logger"
	"devmanager/internal/types"
)

// State is the scheduler state
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
)

// Prober produces one status for one service
type Prober interface {
	Probe(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus
}

// Invalidator is implemented by probers that share state between probes.
// The monitor invalidates it at the start of every pass so nothing carries
// over from an earlier pass.
type Invalidator interface {
	Invalidate()
}

// Item pairs a service with its latest status. Status is nil until the
// service has been probed once.
type Item struct {
	Service config.ServiceDescriptor `json:"service"`
	Status  *types.ServiceStatus     `json:"status,omitempty"`
}

// Snapshot is a consistent copy of the monitor state
type Snapshot struct {
	Items      []Item              `json:"items"`
	Overall    types.OverallStatus `json:"overall"`
	LastUpdate time.Time           `json:"last_update"`
	State      State               `json:"state"`
	Pass       uint64              `json:"pass"`
}

// Find resolves an item by name, then by id
func (s Snapshot) Find(nameOrID string) (Item, bool) {
	for _, item := range s.Items {
		if item.Service.Name == nameOrID {
			return item, true
		}
	}
	for _, item := range s.Items {
		if item.Service.ID == nameOrID {
			return item, true
		}
	}
	return Item{}, false
}

// Options configures a Monitor
type Options struct {
	Interval    time.Duration
	Concurrency int
}

// Monitor owns the polling loop and the status snapshot
type Monitor struct {
	prober      Prober
	interval    time.Duration
	concurrency int

	// snapshot state
	mu         sync.RWMutex
	items      []Item
	overall    types.OverallStatus
	lastUpdate time.Time
	state      State
	pass       uint64

	// passMu is held by the running pass; cancelMu guards the cancel func
	// of the most recently requested one
	passMu     sync.Mutex
	cancelMu   sync.Mutex
	cancelPass context.CancelFunc
	generation uint64

	loopMu sync.Mutex
	loop   *stopper.Context

	subMu sync.Mutex
	subs  map[string]chan Snapshot
}

// New creates an idle monitor for services
func New(prober Prober, services []config.ServiceDescriptor, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultPollInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.DefaultPollConcurrency
	}

	m := &Monitor{
		prober:      prober,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		overall:     types.OverallUnknown,
		state:       StateIdle,
		subs:        make(map[string]chan Snapshot),
	}
	m.items = itemsFor(services, nil)
	return m
}

func itemsFor(services []config.ServiceDescriptor, previous []Item) []Item {
	prev := make(map[string]*types.ServiceStatus, len(previous))
	for _, item := range previous {
		prev[item.Service.ID] = item.Status
	}
	items := make([]Item, len(services))
	for i, svc := range services {
		items[i] = Item{Service: svc, Status: prev[svc.ID]}
	}
	return items
}

// SetServices replaces the monitored services. Services that remain keep
// their latest status.
func (m *Monitor) SetServices(services []config.ServiceDescriptor) {
	m.mu.Lock()
	m.items = itemsFor(services, m.items)
	if m.pass > 0 {
		m.overall = ComputeOverall(m.items)
	}
	m.mu.Unlock()
}

// Start runs a pass immediately and then one per interval until Stop or
// until ctx is cancelled. Starting a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.loop != nil {
		return
	}

	m.setState(StatePolling)
	sctx := stopper.WithContext(ctx)
	m.loop = sctx

	sctx.Go(func(sctx *stopper.Context) error {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.tick(sctx)
		for {
			select {
			case <-sctx.Stopping():
				return nil
			case <-sctx.Done():
				return nil
			case <-ticker.C:
				if sctx.IsStopping() {
					return nil
				}
				m.tick(sctx)
			}
		}
	})

	logger.WithFields(logger.Fields{
		"interval":    m.interval,
		"concurrency": m.concurrency,
	}).Info("Monitor started")
}

func (m *Monitor) tick(ctx context.Context) {
	if err := m.PollOnce(ctx); err != nil {
		logger.WithError(err).Debug("Scheduled pass did not complete")
	}
}

// Stop ends the polling loop, cancels any in-flight pass and waits for the
// loop to exit
func (m *Monitor) Stop() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.loop == nil {
		return
	}

	m.loop.Stop(constants.LoopStopGrace)
	m.cancelCurrent()
	if err := m.loop.Wait(); err != nil {
		logger.WithError(err).Warn("Monitor loop exited with error")
	}
	m.loop = nil
	m.setState(StateIdle)
	logger.Info("Monitor stopped")
}

func (m *Monitor) cancelCurrent() {
	m.cancelMu.Lock()
	if m.cancelPass != nil {
		m.cancelPass()
	}
	m.cancelMu.Unlock()
}

// PollOnce cancels any in-flight pass, waits for it to drain and runs a full
// pass. A pass that is superseded before it completes applies nothing and
// returns a CANCELLED error.
func (m *Monitor) PollOnce(ctx context.Context) error {
	m.cancelMu.Lock()
	if m.cancelPass != nil {
		m.cancelPass()
	}
	passCtx, cancel := context.WithCancel(ctx)
	m.generation++
	gen := m.generation
	m.cancelPass = cancel
	m.cancelMu.Unlock()

	defer func() {
		cancel()
		m.cancelMu.Lock()
		if m.generation == gen {
			m.cancelPass = nil
		}
		m.cancelMu.Unlock()
	}()

	m.passMu.Lock()
	defer m.passMu.Unlock()

	if err := passCtx.Err(); err != nil {
		return errors.PassCancelled(err)
	}
	return m.runPass(passCtx)
}

func (m *Monitor) runPass(ctx context.Context) error {
	passID := xid.New().String()
	log := logger.WithField("pass_id", passID)
	ctx = logger.ContextWithFields(ctx, logger.Fields{"pass_id": passID})
	start := time.Now()

	if inv, ok := m.prober.(Invalidator); ok {
		inv.Invalidate()
	}

	m.mu.RLock()
	services := make([]config.ServiceDescriptor, len(m.items))
	for i, item := range m.items {
		services[i] = item.Service
	}
	m.mu.RUnlock()

	results := make([]types.ServiceStatus, len(services))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, svc := range services {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = m.prober.Probe(gctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Pass superseded, results discarded")
		return errors.PassCancelled(err)
	}
	m.apply(services, results)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	log.WithFields(logger.Fields{
		"services":    len(services),
		"overall":     snap.Overall,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Pass complete")

	m.publish(snap)
	return nil
}

// apply stores one pass's results; callers hold m.mu
func (m *Monitor) apply(services []config.ServiceDescriptor, results []types.ServiceStatus) {
	byID := make(map[string]int, len(m.items))
	for i, item := range m.items {
		byID[item.Service.ID] = i
	}
	for i, svc := range services {
		// the item list may have been replaced during the pass
		j, ok := byID[svc.ID]
		if !ok {
			continue
		}
		status := results[i]
		m.items[j].Status = &status
	}
	m.overall = ComputeOverall(m.items)
	m.lastUpdate = time.Now()
	m.pass++
}

// Snapshot returns a deep copy of the current state
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Snapshot {
	items := make([]Item, len(m.items))
	for i, item := range m.items {
		items[i] = Item{Service: item.Service}
		if item.Status != nil {
			status := item.Status.Clone()
			items[i].Status = &status
		}
	}
	return Snapshot{
		Items:      items,
		Overall:    m.overall,
		LastUpdate: m.lastUpdate,
		State:      m.state,
		Pass:       m.pass,
	}
}

// Find resolves an item in the current snapshot by name, then by id
func (m *Monitor) Find(nameOrID string) (Item, bool) {
	return m.Snapshot().Find(nameOrID)
}

// State returns the scheduler state
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Subscribe returns a channel receiving the snapshot after every completed
// pass, and a func that unsubscribes and closes it. A subscriber that falls
// behind misses snapshots instead of blocking the monitor.
func (m *Monitor) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = constants.SubscriberBuffer
	}
	id := uuid.New().String()
	ch := make(chan Snapshot, buffer)

	m.subMu.Lock()
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			close(ch)
			m.subMu.Unlock()
		})
	}
}

func (m *Monitor) publish(snap Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for id, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			logger.WithField("subscriber", id).Debug("Subscriber behind, snapshot dropped")
		}
	}
}
