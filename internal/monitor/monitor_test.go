package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmanager/internal/config"
	"devmanager/internal/errors"
	"devmanager/internal/testutil"
	"devmanager/internal/types"
)

// funcProber adapts a function to the Prober interface
type funcProber func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus

func (f funcProber) Probe(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
	return f(ctx, svc)
}

func healthyProber() funcProber {
	return func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		return types.NewStatus(types.IconHealthy, "Running")
	}
}

func testServices() []config.ServiceDescriptor {
	return []config.ServiceDescriptor{
		testutil.ProcessService("postgres", true, "pg_isready"),
		testutil.ProcessService("redis", true, "redis-cli ping"),
		testutil.ProcessService("mailpit", false, "true"),
	}
}

func TestMonitor_InitialSnapshot(t *testing.T) {
	m := New(healthyProber(), testServices(), Options{})
	snap := m.Snapshot()

	assert.Equal(t, types.OverallUnknown, snap.Overall)
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Pass)
	assert.True(t, snap.LastUpdate.IsZero())
	require.Len(t, snap.Items, 3)
	for _, it := range snap.Items {
		assert.Nil(t, it.Status)
	}
}

func TestMonitor_PollOnce(t *testing.T) {
	prober := funcProber(func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		if svc.ID == "redis" {
			return types.NewStatus(types.IconStopped, "Stopped")
		}
		return types.NewStatus(types.IconHealthy, "Running")
	})
	m := New(prober, testServices(), Options{})

	require.NoError(t, m.PollOnce(context.Background()))
	snap := m.Snapshot()

	assert.Equal(t, uint64(1), snap.Pass)
	assert.Equal(t, types.OverallDegraded, snap.Overall)
	assert.False(t, snap.LastUpdate.IsZero())
	assert.Equal(t, []string{"postgres", "redis", "mailpit"}, []string{snap.Items[0].Service.ID, snap.Items[1].Service.ID, snap.Items[2].Service.ID})
	assert.Equal(t, types.IconStopped, snap.Items[1].Status.Icon)
}

func TestMonitor_SnapshotIsACopy(t *testing.T) {
	m := New(healthyProber(), testServices(), Options{})
	require.NoError(t, m.PollOnce(context.Background()))

	snap := m.Snapshot()
	snap.Items[0].Status.Icon = types.IconFailed
	snap.Items[1] = Item{}

	fresh := m.Snapshot()
	assert.Equal(t, types.IconHealthy, fresh.Items[0].Status.Icon)
	assert.Equal(t, "redis", fresh.Items[1].Service.ID)
}

func TestMonitor_OverlappingPassesNeverMix(t *testing.T) {
	var pass atomic.Int32
	firstEntered := make(chan struct{})
	var once sync.Once

	prober := funcProber(func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		if pass.Load() == 1 {
			if svc.ID == "postgres" {
				once.Do(func() { close(firstEntered) })
				<-ctx.Done()
				return types.NewStatus(types.IconFailed, "first pass")
			}
			return types.NewStatus(types.IconStopped, "first pass")
		}
		return types.NewStatus(types.IconHealthy, "second pass")
	})
	m := New(prober, testServices(), Options{Concurrency: 4})

	pass.Store(1)
	firstDone := make(chan error, 1)
	go func() { firstDone <- m.PollOnce(context.Background()) }()
	<-firstEntered

	pass.Store(2)
	require.NoError(t, m.PollOnce(context.Background()))

	err := <-firstDone
	assert.True(t, errors.HasCode(err, errors.ErrCancelled), "superseded pass reports CANCELLED, got %v", err)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Pass, "only the second pass applied")
	for _, it := range snap.Items {
		require.NotNil(t, it.Status)
		assert.Equal(t, "second pass", it.Status.Description, it.Service.ID)
	}
	assert.Equal(t, types.OverallHealthy, snap.Overall)
}

type invalidatingProber struct {
	funcProber
	invalidations atomic.Int32
}

func (p *invalidatingProber) Invalidate() {
	p.invalidations.Add(1)
}

func TestMonitor_InvalidatesProberEveryPass(t *testing.T) {
	p := &invalidatingProber{funcProber: healthyProber()}
	m := New(p, testServices(), Options{})

	require.NoError(t, m.PollOnce(context.Background()))
	require.NoError(t, m.PollOnce(context.Background()))
	assert.EqualValues(t, 2, p.invalidations.Load())
}

func TestMonitor_CancelledContext(t *testing.T) {
	m := New(healthyProber(), testServices(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.PollOnce(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCancelled))
	assert.Zero(t, m.Snapshot().Pass)
}

func TestMonitor_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	prober := funcProber(func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return types.NewStatus(types.IconHealthy, "Running")
	})

	var services []config.ServiceDescriptor
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		services = append(services, testutil.ProcessService(id, true, "true"))
	}
	m := New(prober, services, Options{Concurrency: 2})

	require.NoError(t, m.PollOnce(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, types.OverallHealthy, m.Snapshot().Overall)
}

func TestMonitor_StartStop(t *testing.T) {
	var probes atomic.Int32
	prober := funcProber(func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		probes.Add(1)
		return types.NewStatus(types.IconHealthy, "Running")
	})
	m := New(prober, testServices(), Options{Interval: 20 * time.Millisecond})

	m.Start(context.Background())
	m.Start(context.Background())
	assert.Equal(t, StatePolling, m.State())

	require.Eventually(t, func() bool { return m.Snapshot().Pass >= 3 }, 5*time.Second, 10*time.Millisecond)

	m.Stop()
	assert.Equal(t, StateIdle, m.State())

	settled := probes.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, probes.Load(), "no probes after Stop")

	// stopping twice is harmless
	m.Stop()
}

func TestMonitor_StopCancelsInFlightPass(t *testing.T) {
	entered := make(chan struct{}, 8)
	prober := funcProber(func(ctx context.Context, svc config.ServiceDescriptor) types.ServiceStatus {
		entered <- struct{}{}
		<-ctx.Done()
		return types.NewStatus(types.IconFailed, "cancelled")
	})
	m := New(prober, testServices()[:1], Options{Interval: time.Hour})

	m.Start(context.Background())
	<-entered

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the in-flight pass")
	}
	assert.Zero(t, m.Snapshot().Pass)
}

func TestMonitor_Subscribe(t *testing.T) {
	m := New(healthyProber(), testServices(), Options{})
	updates, unsubscribe := m.Subscribe(1)

	require.NoError(t, m.PollOnce(context.Background()))
	select {
	case snap := <-updates:
		assert.Equal(t, uint64(1), snap.Pass)
		assert.Equal(t, types.OverallHealthy, snap.Overall)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	// a full buffer drops snapshots instead of blocking the pass
	require.NoError(t, m.PollOnce(context.Background()))
	require.NoError(t, m.PollOnce(context.Background()))
	snap := <-updates
	assert.Equal(t, uint64(2), snap.Pass)

	unsubscribe()
	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
	require.NoError(t, m.PollOnce(context.Background()))
}

func TestMonitor_Find(t *testing.T) {
	byName := testutil.ProcessService("svc-1", true, "true")
	byName.Name = "api"
	byID := testutil.ProcessService("api", true, "true")
	byID.Name = "api-legacy"

	m := New(healthyProber(), []config.ServiceDescriptor{byID, byName}, Options{})

	got, ok := m.Find("api")
	require.True(t, ok)
	assert.Equal(t, "svc-1", got.Service.ID, "name wins over id")

	got, ok = m.Find("api-legacy")
	require.True(t, ok)
	assert.Equal(t, "api", got.Service.ID)

	_, ok = m.Find("missing")
	assert.False(t, ok)
}

func TestMonitor_SetServicesKeepsStatuses(t *testing.T) {
	m := New(healthyProber(), testServices(), Options{})
	require.NoError(t, m.PollOnce(context.Background()))

	services := append([]config.ServiceDescriptor{testutil.ProfileService("default")}, testServices()[1:]...)
	m.SetServices(services)

	snap := m.Snapshot()
	require.Len(t, snap.Items, 3)
	assert.Equal(t, "colima-default", snap.Items[0].Service.ID)
	assert.Nil(t, snap.Items[0].Status)
	require.NotNil(t, snap.Items[1].Status)
	assert.Equal(t, "redis", snap.Items[1].Service.ID)
	assert.Equal(t, types.OverallHealthy, snap.Overall)
}
