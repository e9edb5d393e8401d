package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/logger"
	"devmanager/internal/types"
)

// profileRecord is one entry of the runtime's list output
type profileRecord struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	CPUs   *float64 `json:"cpus"`
	Memory *float64 `json:"memory"`
}

func (p *Prober) probeProfile(ctx context.Context, v config.ProfileProbe) types.ServiceStatus {
	log := logger.WithContext(ctx).WithField("profile", v.Profile)

	record, err := p.lookupProfile(ctx, v.Profile, v.Timeout)
	if err == nil {
		return profileStatus(record)
	}
	if ctx.Err() != nil {
		return types.NewStatus(types.IconStopped, DescStatusCheckFailed)
	}
	log.WithError(err).Debug("Profile list unusable, falling back to status command")

	result, err := p.executor.Run(ctx, v.StatusCommand, v.Timeout)
	if err != nil {
		log.WithError(err).Debug("Profile status command failed to run")
		return types.NewStatus(types.IconStopped, DescStatusCheckFailed)
	}
	if result.Success() {
		return types.NewStatus(types.IconHealthy, DescRunning)
	}
	return types.NewStatus(types.IconStopped, DescStopped)
}

func profileStatus(r profileRecord) types.ServiceStatus {
	status := types.NewStatus(types.IconStopped, DescStopped)
	if strings.EqualFold(r.Status, "running") {
		status = types.NewStatus(types.IconHealthy, DescRunning)
	}
	if r.CPUs != nil {
		cpus := int(*r.CPUs)
		status.CPUCount = &cpus
	}
	if r.Memory != nil {
		gib := *r.Memory / constants.BytesPerGiB
		status.MemoryGiB = &gib
	}
	return status
}

// lookupProfile finds the named profile in the list output. Concurrent
// probes share one list invocation, and its output is cached briefly.
func (p *Prober) lookupProfile(ctx context.Context, profile string, timeout time.Duration) (profileRecord, error) {
	output, err := p.profileList(ctx, timeout)
	if err != nil {
		return profileRecord{}, err
	}
	records, err := parseProfileList(output)
	if err != nil {
		return profileRecord{}, err
	}
	for _, r := range records {
		if r.Name == profile {
			return r, nil
		}
	}
	return profileRecord{}, errors.ParseError(p.listCommand, "profile "+profile+" not listed")
}

func (p *Prober) profileList(ctx context.Context, timeout time.Duration) (string, error) {
	key := fmt.Sprintf("%s#%d", p.listCommand, p.listGen.Load())
	if out, ok := p.listCache.Get(key); ok {
		return out, nil
	}

	// the shared call outlives a cancelled caller; the executor timeout bounds it
	flightCtx := context.WithoutCancel(ctx)
	ch := p.listFlight.DoChan(key, func() (interface{}, error) {
		result, err := p.executor.Run(flightCtx, p.listCommand, timeout)
		if err != nil {
			return "", err
		}
		if !result.Success() {
			return "", errors.ParseError(p.listCommand, "list command exited with non-zero status")
		}
		p.listCache.Set(key, result.Output)
		return result.Output, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", errors.CommandCancelled(p.listCommand, ctx.Err())
	}
}

// parseProfileList accepts newline-delimited JSON objects or a JSON array
func parseProfileList(output string) ([]profileRecord, error) {
	trimmed := bytes.TrimSpace([]byte(output))
	if len(trimmed) == 0 {
		return nil, errors.ParseError("profile list", "empty output")
	}

	if trimmed[0] == '[' {
		var records []profileRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.ParseError("profile list", err.Error())
		}
		return records, nil
	}

	var records []profileRecord
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var r profileRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, errors.ParseError("profile list", err.Error())
		}
		records = append(records, r)
	}
	return records, nil
}
