// Package profiles discovers container runtime profiles on disk and turns
// them into service descriptors.
package profiles

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/logger"
	"devmanager/internal/validation"
)

// IDPrefix prefixes the id of every synthesised profile descriptor
const IDPrefix = constants.ProfileBinary + "-"

// Discover lists the profile names under dir, sorted. A missing directory
// means no profiles.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profiles directory %s: %w", dir, err)
	}

	var profiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "ssh_config" {
			continue
		}
		if validation.Identifier("profile", name) != nil {
			logger.WithField("entry", name).Debug("Skipping profile entry with an unusable name")
			continue
		}
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles, nil
}

// Descriptor synthesises the descriptor that monitors one profile
func Descriptor(profile string) config.ServiceDescriptor {
	bin := constants.ProfileBinary
	id := IDPrefix + profile
	status := bin + " status " + profile

	return config.ServiceDescriptor{
		ID:           id,
		Name:         id,
		DisplayName:  "Colima: " + profile,
		Type:         config.KindProcess,
		Icon:         "🐳",
		Description:  "Docker runtime profile: " + profile,
		StartupOrder: constants.ProfileStartupOrder,
		Commands: config.Commands{
			Start:   bin + " start " + profile,
			Stop:    bin + " stop " + profile,
			Restart: bin + " stop " + profile + " && " + bin + " start " + profile,
			Status:  status,
		},
		HealthCheck: &config.HealthCheck{
			Type:                  config.HealthCheckCommand,
			Command:               status,
			ExpectedOutputPattern: "running",
			TimeoutSeconds:        int(constants.DefaultStatusTimeout.Seconds()),
		},
		ColimaProfile: profile,
		Notes:         "Colima profile: " + profile,
	}
}

// BuildServices returns the monitored services: profile descriptors first,
// then the configured services in document order. The placeholder service is
// left out once at least one profile stands in for it.
func BuildServices(configured []config.ServiceDescriptor, profiles []string, placeholderID string) []config.ServiceDescriptor {
	services := make([]config.ServiceDescriptor, 0, len(profiles)+len(configured))
	taken := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		d := Descriptor(p)
		services = append(services, d)
		taken[d.ID] = true
	}

	for _, svc := range configured {
		if len(profiles) > 0 && placeholderID != "" && svc.ID == placeholderID {
			continue
		}
		if taken[svc.ID] {
			logger.WithField("service", svc.ID).Warn("Configured service shadowed by a discovered profile")
			continue
		}
		services = append(services, svc)
	}
	return services
}
