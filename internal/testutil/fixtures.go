package testutil

import (
	"devmanager/internal/config"
)

// ProcessService builds a process descriptor with a status command
func ProcessService(id string, critical bool, status string) config.ServiceDescriptor {
	return config.ServiceDescriptor{
		ID:          id,
		Name:        id,
		DisplayName: id,
		Type:        config.KindProcess,
		Critical:    critical,
		Commands: config.Commands{
			Start:   id + " start",
			Stop:    id + " stop",
			Restart: id + " restart",
			Status:  status,
		},
	}
}

// HTTPService builds an HTTP descriptor probing urls in order
func HTTPService(id string, critical bool, urls ...string) config.ServiceDescriptor {
	svc := config.ServiceDescriptor{
		ID:          id,
		Name:        id,
		DisplayName: id,
		Type:        config.KindHTTP,
		Critical:    critical,
		Commands: config.Commands{
			Start:   id + " start",
			Stop:    id + " stop",
			Restart: id + " restart",
		},
		HealthCheck: &config.HealthCheck{Type: config.HealthCheckHTTP},
	}
	for _, u := range urls {
		svc.HealthCheck.Endpoints = append(svc.HealthCheck.Endpoints, config.HealthEndpoint{URL: u})
	}
	return svc
}

// ProfileService builds a descriptor inspected through the profile probe
func ProfileService(profile string) config.ServiceDescriptor {
	id := "colima-" + profile
	return config.ServiceDescriptor{
		ID:            id,
		Name:          id,
		DisplayName:   "Colima: " + profile,
		Type:          config.KindProcess,
		ColimaProfile: profile,
		Commands: config.Commands{
			Start:   "colima start " + profile,
			Stop:    "colima stop " + profile,
			Restart: "colima stop " + profile + " && colima start " + profile,
			Status:  "colima status " + profile,
		},
	}
}
