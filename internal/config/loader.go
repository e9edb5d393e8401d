package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/logger"
	"devmanager/internal/validation"
	"devmanager/internal/xdg"
)

const (
	// legacyContainerServiceID is the service whose container precondition
	// is implied when the document does not declare one
	legacyContainerServiceID = "supabase"

	// legacyContainerMinCount is the implied running container count
	legacyContainerMinCount = 5
)

// ResolvePath picks the services document location: explicit flag, then
// the environment, then the global config, then the XDG default.
func ResolvePath(flagPath string, global *GlobalConfig) (string, error) {
	if flagPath != "" {
		return xdg.ExpandHome(flagPath), nil
	}
	if env := os.Getenv(constants.EnvConfigPath); env != "" {
		return xdg.ExpandHome(env), nil
	}
	if global != nil && global.Services.ConfigPath != "" {
		return global.Services.ConfigPath, nil
	}
	return xdg.ServicesFile()
}

// Load reads, decodes, normalizes and validates a services document.
// Every failure is a configuration error.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.ConfigParseError(path, err)
	}

	doc, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, errors.ConfigParseError(path, err)
	}
	doc.path = path

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"path":     path,
		"version":  doc.Version,
		"services": len(doc.Services),
	}).Debug("Loaded services document")

	return doc, nil
}

// Format is a services document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parse decodes a services document and applies defaults
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}

	doc.applyDefaults()
	return &doc, nil
}

func (d *Document) applyDefaults() {
	for i := range d.Services {
		svc := &d.Services[i]
		if svc.Type == "" {
			svc.Type = KindProcess
		}
		if svc.Name == "" {
			svc.Name = svc.ID
		}
		if svc.DisplayName == "" {
			svc.DisplayName = svc.Name
		}
		if hc := svc.HealthCheck; hc != nil && hc.Type == "" {
			if len(hc.Endpoints) > 0 {
				hc.Type = HealthCheckHTTP
			} else if hc.Command != "" {
				hc.Type = HealthCheckCommand
			}
		}
		if svc.ID == legacyContainerServiceID && svc.Type == KindHTTP && svc.RequiredContainers == nil {
			svc.RequiredContainers = &ContainerRequirement{
				NameFilter: legacyContainerServiceID,
				MinCount:   legacyContainerMinCount,
			}
		}
	}
}

// Validate checks the document for structural errors
func (d *Document) Validate() error {
	if err := validation.NonNegative("global_settings.health_check_interval_seconds", d.GlobalSettings.HealthCheckIntervalSeconds); err != nil {
		return err
	}
	if err := validation.NonNegative("global_settings.health_check_timeout_seconds", d.GlobalSettings.HealthCheckTimeoutSeconds); err != nil {
		return err
	}

	ids := make(map[string]bool, len(d.Services))
	names := make(map[string]bool, len(d.Services))
	for i, svc := range d.Services {
		field := fmt.Sprintf("services[%d]", i)
		if err := svc.validate(field); err != nil {
			return err
		}
		if ids[svc.ID] {
			return errors.ConfigValidationError(field+".id", fmt.Sprintf("duplicate id %q", svc.ID))
		}
		if names[svc.Name] {
			return errors.ConfigValidationError(field+".name", fmt.Sprintf("duplicate name %q", svc.Name))
		}
		ids[svc.ID] = true
		names[svc.Name] = true
	}
	return nil
}

func (s ServiceDescriptor) validate(field string) error {
	if err := validation.Identifier(field+".id", s.ID); err != nil {
		return err
	}
	if err := validation.Identifier(field+".name", s.Name); err != nil {
		return err
	}
	switch s.Type {
	case KindProcess, KindHTTP:
	default:
		return errors.ConfigValidationError(field+".type", fmt.Sprintf("unknown type %q (want process or http)", s.Type))
	}
	if err := validation.NonNegative(field+".startup_delay_seconds", s.StartupDelaySeconds); err != nil {
		return err
	}
	if s.ColimaProfile != "" {
		if err := validation.Identifier(field+".colima_profile", s.ColimaProfile); err != nil {
			return err
		}
	}
	if req := s.RequiredContainers; req != nil {
		if err := validation.Identifier(field+".required_containers.name_filter", req.NameFilter); err != nil {
			return err
		}
		if req.MinCount < 1 {
			return errors.ConfigValidationError(field+".required_containers.min_count", "must be at least 1")
		}
	}
	for j, p := range s.Ports {
		if err := validation.PortNumber(fmt.Sprintf("%s.ports[%d].port", field, j), p.Port); err != nil {
			return err
		}
	}
	if hc := s.HealthCheck; hc != nil {
		if err := hc.validate(field + ".health_check"); err != nil {
			return err
		}
	}
	return nil
}

func (hc *HealthCheck) validate(field string) error {
	switch hc.Type {
	case HealthCheckCommand, HealthCheckHTTP, "":
	default:
		return errors.ConfigValidationError(field+".type", fmt.Sprintf("unknown type %q (want command or http)", hc.Type))
	}
	if err := validation.NonNegative(field+".timeout_seconds", hc.TimeoutSeconds); err != nil {
		return err
	}
	if err := validation.NonNegative(field+".interval_seconds", hc.IntervalSeconds); err != nil {
		return err
	}
	if hc.ExpectedOutputPattern != "" {
		if err := validation.Pattern(field+".expected_output_pattern", hc.ExpectedOutputPattern); err != nil {
			return err
		}
	}
	for _, code := range hc.ExpectedStatusCodes {
		if err := validation.StatusCode(field+".expected_status_codes", code); err != nil {
			return err
		}
	}
	for j, ep := range hc.Endpoints {
		epField := fmt.Sprintf("%s.endpoints[%d]", field, j)
		for _, code := range ep.ExpectedStatusCodes {
			if err := validation.StatusCode(epField+".expected_status_codes", code); err != nil {
				return err
			}
		}
	}
	return nil
}

// Warnings lists problems that do not prevent loading the document
func (d *Document) Warnings() []string {
	var warnings []string
	ids := make(map[string]bool, len(d.Services))
	for _, svc := range d.Services {
		ids[svc.ID] = true
	}
	for _, svc := range d.Services {
		if strings.TrimSpace(svc.Commands.Start) == "" {
			warnings = append(warnings, fmt.Sprintf("%s: start command is empty", svc.ID))
		}
		for _, dep := range svc.Dependencies {
			if !ids[dep] {
				warnings = append(warnings, fmt.Sprintf("%s: dependency %q is not a configured service", svc.ID, dep))
			}
		}
		if hc := svc.HealthCheck; hc != nil {
			for j, ep := range hc.Endpoints {
				if err := validation.EndpointURL(fmt.Sprintf("endpoints[%d].url", j), ep.URL); err != nil {
					warnings = append(warnings, fmt.Sprintf("%s: %v", svc.ID, err))
				}
			}
		}
	}
	return warnings
}
