// Package types holds the status values shared by the probe, monitor and
// presentation layers.
package types

import (
	"fmt"
	"strings"
)

// Icon is the severity of a probe result
type Icon string

const (
	IconHealthy  Icon = "healthy"
	IconDegraded Icon = "degraded"
	IconStopped  Icon = "stopped"
	IconUnknown  Icon = "unknown"
	IconFailed   Icon = "failed"
)

// Emoji renders the icon the way the status table shows it
func (i Icon) Emoji() string {
	switch i {
	case IconHealthy:
		return "🟢"
	case IconDegraded:
		return "🟠"
	case IconStopped:
		return "🔴"
	case IconFailed:
		return "❌"
	default:
		return "❓"
	}
}

// ServiceStatus is the result of one probe. It is replaced wholesale on
// every pass and never mutated in place.
type ServiceStatus struct {
	Icon        Icon     `json:"icon"`
	Description string   `json:"description"`
	LatencyMs   *int64   `json:"latency_ms,omitempty"`
	Uptime      string   `json:"uptime,omitempty"`
	CPUCount    *int     `json:"cpu_count,omitempty"`
	MemoryGiB   *float64 `json:"memory_gib,omitempty"`
}

// NewStatus builds a status without metrics
func NewStatus(icon Icon, description string) ServiceStatus {
	return ServiceStatus{Icon: icon, Description: description}
}

// WithLatency returns a copy carrying a round-trip latency
func (s ServiceStatus) WithLatency(ms int64) ServiceStatus {
	s.LatencyMs = &ms
	return s
}

// WithResources returns a copy carrying CPU and memory figures
func (s ServiceStatus) WithResources(cpus int, memoryGiB float64) ServiceStatus {
	s.CPUCount = &cpus
	s.MemoryGiB = &memoryGiB
	return s
}

// Clone copies the optional metric fields so the copy shares no pointers
func (s ServiceStatus) Clone() ServiceStatus {
	out := s
	if s.LatencyMs != nil {
		v := *s.LatencyMs
		out.LatencyMs = &v
	}
	if s.CPUCount != nil {
		v := *s.CPUCount
		out.CPUCount = &v
	}
	if s.MemoryGiB != nil {
		v := *s.MemoryGiB
		out.MemoryGiB = &v
	}
	return out
}

// Details renders the metric fields, e.g. "12ms" or "4 CPU, 8.0 GiB"
func (s ServiceStatus) Details() string {
	var parts []string
	if s.LatencyMs != nil {
		parts = append(parts, fmt.Sprintf("%dms", *s.LatencyMs))
	}
	if s.CPUCount != nil {
		parts = append(parts, fmt.Sprintf("%d CPU", *s.CPUCount))
	}
	if s.MemoryGiB != nil {
		parts = append(parts, fmt.Sprintf("%.1f GiB", *s.MemoryGiB))
	}
	if s.Uptime != "" {
		parts = append(parts, "up "+s.Uptime)
	}
	return strings.Join(parts, ", ")
}

// OverallStatus is the verdict over all critical services
type OverallStatus string

const (
	OverallHealthy  OverallStatus = "healthy"
	OverallDegraded OverallStatus = "degraded"
	OverallFailed   OverallStatus = "failed"
	OverallUnknown  OverallStatus = "unknown"
)

// Label renders the verdict with its icon
func (o OverallStatus) Label() string {
	switch o {
	case OverallHealthy:
		return "🟢 Healthy"
	case OverallDegraded:
		return "🟠 Degraded"
	case OverallFailed:
		return "🔴 Failed"
	default:
		return "❓ Unknown"
	}
}
