package probe

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"devmanager/internal/config"
	"devmanager/internal/logger"
	"devmanager/internal/types"
)

// maxDrainBytes bounds how much of a health response body is read
const maxDrainBytes = 64 << 10

func (p *Prober) probeHTTP(ctx context.Context, v config.HTTPProbe) types.ServiceStatus {
	log := logger.WithContext(ctx)

	if req := v.Precondition; req != nil {
		count, err := p.counter.Count(ctx, req.NameFilter)
		if err != nil {
			log.WithError(err).Debug("Container count failed")
			return types.NewStatus(types.IconStopped, DescContainersStopped)
		}
		if count < req.MinCount {
			log.WithFields(logger.Fields{"running": count, "required": req.MinCount}).Debug("Container precondition not met")
			return types.NewStatus(types.IconStopped, DescContainersStopped)
		}
	}

	if !v.Configured || len(v.Endpoints) == 0 {
		return types.NewStatus(types.IconUnknown, DescNoHealthCheck)
	}

	// endpoints are tried strictly in order; the first definitive result wins
	for _, ep := range v.Endpoints {
		if status, ok := p.checkEndpoint(ctx, ep, v.Timeout); ok {
			return status
		}
		if ctx.Err() != nil {
			break
		}
	}
	return types.NewStatus(types.IconFailed, DescHealthFailed)
}

// checkEndpoint issues one GET. It returns false when the endpoint gave no
// definitive answer (invalid URL, connection error).
func (p *Prober) checkEndpoint(ctx context.Context, ep config.HealthEndpoint, timeout time.Duration) (types.ServiceStatus, bool) {
	log := logger.WithContext(ctx).WithField("url", ep.URL)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ep.URL, nil)
	if err != nil {
		log.WithError(err).Debug("Invalid health endpoint")
		return types.ServiceStatus{}, false
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return types.ServiceStatus{}, false
		}
		if reqCtx.Err() != nil || isTimeout(err) {
			log.WithField("timeout", timeout).Debug("Health endpoint timed out")
			return types.NewStatus(types.IconFailed, DescHealthTimeout), true
		}
		log.WithError(err).Debug("Health endpoint unreachable")
		return types.ServiceStatus{}, false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	latency := time.Since(start).Milliseconds()
	if ep.Accepts(resp.StatusCode) {
		return types.NewStatus(types.IconHealthy, DescHealthy).WithLatency(latency), true
	}
	return types.NewStatus(types.IconDegraded, fmt.Sprintf("HTTP %d", resp.StatusCode)).WithLatency(latency), true
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
