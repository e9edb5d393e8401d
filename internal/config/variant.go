package config

import (
	"time"

	"devmanager/internal/constants"
	"devmanager/internal/validation"
)

// ProbeVariant is the probe a descriptor resolves to. The set of
// implementations is closed: ProcessProbe, ProfileProbe and HTTPProbe.
type ProbeVariant interface {
	probeVariant()
}

// ProcessProbe checks a service through a status command's exit code
type ProcessProbe struct {
	Command         string
	ExpectedPattern string
	Timeout         time.Duration
}

// ProfileProbe inspects a container runtime profile through the runtime's
// list command, falling back to its status command
type ProfileProbe struct {
	Profile       string
	StatusCommand string
	Timeout       time.Duration
}

// HTTPProbe checks endpoints in declared order after an optional container
// precondition
type HTTPProbe struct {
	Configured   bool
	Endpoints    []HealthEndpoint
	Precondition *ContainerRequirement
	Timeout      time.Duration
}

func (ProcessProbe) probeVariant() {}
func (ProfileProbe) probeVariant() {}
func (HTTPProbe) probeVariant()    {}

// ProbeDefaults are the timeouts used when the descriptor does not set one
type ProbeDefaults struct {
	StatusTimeout time.Duration
	HTTPTimeout   time.Duration
}

// DefaultProbeDefaults returns the built-in probe timeouts
func DefaultProbeDefaults() ProbeDefaults {
	return ProbeDefaults{
		StatusTimeout: constants.DefaultStatusTimeout,
		HTTPTimeout:   constants.DefaultHTTPProbeTimeout,
	}
}

// Variant resolves the probe for this descriptor. A profile name wins over
// the declared type.
func (s ServiceDescriptor) Variant(defaults ProbeDefaults) ProbeVariant {
	switch {
	case s.ColimaProfile != "":
		status := s.Commands.Status
		if status == "" {
			status = constants.ProfileBinary + " status " + validation.ShellEscape(s.ColimaProfile)
		}
		return ProfileProbe{
			Profile:       s.ColimaProfile,
			StatusCommand: status,
			Timeout:       s.timeout(defaults.StatusTimeout),
		}
	case s.Type == KindHTTP:
		probe := HTTPProbe{
			Configured:   s.HealthCheck != nil,
			Precondition: s.RequiredContainers,
			Timeout:      s.timeout(defaults.HTTPTimeout),
		}
		if s.HealthCheck != nil {
			probe.Endpoints = resolveEndpoints(s.HealthCheck)
		}
		return probe
	default:
		probe := ProcessProbe{
			Command: s.Commands.Status,
			Timeout: s.timeout(defaults.StatusTimeout),
		}
		// the output pattern belongs to the health check command only
		if hc := s.HealthCheck; hc != nil && probe.Command == "" && hc.Type == HealthCheckCommand {
			probe.Command = hc.Command
			probe.ExpectedPattern = hc.ExpectedOutputPattern
		}
		return probe
	}
}

func (s ServiceDescriptor) timeout(fallback time.Duration) time.Duration {
	if s.HealthCheck != nil && s.HealthCheck.TimeoutSeconds > 0 {
		return time.Duration(s.HealthCheck.TimeoutSeconds) * time.Second
	}
	return fallback
}

// resolveEndpoints fills each endpoint's accepted codes from the health
// check, then from the {200} default
func resolveEndpoints(hc *HealthCheck) []HealthEndpoint {
	out := make([]HealthEndpoint, 0, len(hc.Endpoints))
	for _, ep := range hc.Endpoints {
		codes := ep.ExpectedStatusCodes
		if len(codes) == 0 {
			codes = hc.ExpectedStatusCodes
		}
		if len(codes) == 0 {
			codes = []int{200}
		}
		ep.ExpectedStatusCodes = append([]int(nil), codes...)
		out = append(out, ep)
	}
	return out
}
