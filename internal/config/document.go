// Package config loads the services document and the user's global
// preferences into typed, immutable descriptors.
package config

// Kind is the declared service type
type Kind string

const (
	KindProcess Kind = "process"
	KindHTTP    Kind = "http"
)

// HealthCheckType selects how a declared health check is run
type HealthCheckType string

const (
	HealthCheckCommand HealthCheckType = "command"
	HealthCheckHTTP    HealthCheckType = "http"
)

// Document is the services configuration document
type Document struct {
	Version        string                   `json:"version" yaml:"version" toml:"version"`
	Description    string                   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Services       []ServiceDescriptor      `json:"services" yaml:"services" toml:"services"`
	GlobalSettings GlobalSettings           `json:"global_settings" yaml:"global_settings" toml:"global_settings"`
	FutureServices map[string]FutureService `json:"future_services,omitempty" yaml:"future_services,omitempty" toml:"future_services,omitempty"`

	path string
}

// Path returns the file the document was loaded from
func (d *Document) Path() string {
	return d.path
}

// Service finds a configured service by id
func (d *Document) Service(id string) (ServiceDescriptor, bool) {
	for _, svc := range d.Services {
		if svc.ID == id {
			return svc, true
		}
	}
	return ServiceDescriptor{}, false
}

// ServiceDescriptor is the immutable configuration record for one service
type ServiceDescriptor struct {
	ID                  string                `json:"id" yaml:"id" toml:"id"`
	Name                string                `json:"name" yaml:"name" toml:"name"`
	DisplayName         string                `json:"display_name" yaml:"display_name" toml:"display_name"`
	Type                Kind                  `json:"type" yaml:"type" toml:"type"`
	Icon                string                `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Description         string                `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	StartupOrder        int                   `json:"startup_order" yaml:"startup_order" toml:"startup_order"`
	Critical            bool                  `json:"critical" yaml:"critical" toml:"critical"`
	StartupDelaySeconds int                   `json:"startup_delay_seconds,omitempty" yaml:"startup_delay_seconds,omitempty" toml:"startup_delay_seconds,omitempty"`
	Commands            Commands              `json:"commands" yaml:"commands" toml:"commands"`
	HealthCheck         *HealthCheck          `json:"health_check,omitempty" yaml:"health_check,omitempty" toml:"health_check,omitempty"`
	ColimaProfile       string                `json:"colima_profile,omitempty" yaml:"colima_profile,omitempty" toml:"colima_profile,omitempty"`
	RequiredContainers  *ContainerRequirement `json:"required_containers,omitempty" yaml:"required_containers,omitempty" toml:"required_containers,omitempty"`
	Ports               []Port                `json:"ports,omitempty" yaml:"ports,omitempty" toml:"ports,omitempty"`
	Files               *Files                `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
	Dependencies        []string              `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	Notes               string                `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
}

// Label returns the display name, falling back to the name
func (s ServiceDescriptor) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// Commands are opaque shell command lines
type Commands struct {
	Start   string `json:"start" yaml:"start" toml:"start"`
	Stop    string `json:"stop" yaml:"stop" toml:"stop"`
	Restart string `json:"restart" yaml:"restart" toml:"restart"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
}

// HealthCheck describes how a service's health is verified
type HealthCheck struct {
	Type                  HealthCheckType  `json:"type" yaml:"type" toml:"type"`
	Endpoints             []HealthEndpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
	Command               string           `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	ExpectedOutputPattern string           `json:"expected_output_pattern,omitempty" yaml:"expected_output_pattern,omitempty" toml:"expected_output_pattern,omitempty"`
	TimeoutSeconds        int              `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`
	IntervalSeconds       int              `json:"interval_seconds,omitempty" yaml:"interval_seconds,omitempty" toml:"interval_seconds,omitempty"`
	ExpectedStatusCodes   []int            `json:"expected_status_codes,omitempty" yaml:"expected_status_codes,omitempty" toml:"expected_status_codes,omitempty"`
}

// HealthEndpoint is one URL probed by the HTTP probe
type HealthEndpoint struct {
	URL                 string `json:"url" yaml:"url" toml:"url"`
	ExpectedStatusCodes []int  `json:"expected_status_codes,omitempty" yaml:"expected_status_codes,omitempty" toml:"expected_status_codes,omitempty"`
	Description         string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Accepts reports whether code is in the endpoint's accepted set
func (e HealthEndpoint) Accepts(code int) bool {
	for _, c := range e.ExpectedStatusCodes {
		if c == code {
			return true
		}
	}
	return false
}

// ContainerRequirement is the HTTP probe precondition: at least MinCount
// running containers whose name matches NameFilter
type ContainerRequirement struct {
	NameFilter string `json:"name_filter" yaml:"name_filter" toml:"name_filter"`
	MinCount   int    `json:"min_count" yaml:"min_count" toml:"min_count"`
}

// Port documents a port a service listens on
type Port struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Port     int    `json:"port" yaml:"port" toml:"port"`
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty" toml:"protocol,omitempty"`
}

// Files lists scripts and files related to a service
type Files struct {
	StartupScripts []FileRef `json:"startup_scripts,omitempty" yaml:"startup_scripts,omitempty" toml:"startup_scripts,omitempty"`
	StopScripts    []FileRef `json:"stop_scripts,omitempty" yaml:"stop_scripts,omitempty" toml:"stop_scripts,omitempty"`
	ConfigFiles    []FileRef `json:"config_files,omitempty" yaml:"config_files,omitempty" toml:"config_files,omitempty"`
	RelatedFiles   []FileRef `json:"related_files,omitempty" yaml:"related_files,omitempty" toml:"related_files,omitempty"`
}

// Count returns the number of referenced files
func (f *Files) Count() int {
	if f == nil {
		return 0
	}
	return len(f.StartupScripts) + len(f.StopScripts) + len(f.ConfigFiles) + len(f.RelatedFiles)
}

// FileRef names one file
type FileRef struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Path        string `json:"path" yaml:"path" toml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// GlobalSettings are document-level intervals, timeouts and directories
type GlobalSettings struct {
	AutoStartOnWake            bool   `json:"auto_start_on_wake" yaml:"auto_start_on_wake" toml:"auto_start_on_wake"`
	AutoRecoverOnWake          bool   `json:"auto_recover_on_wake" yaml:"auto_recover_on_wake" toml:"auto_recover_on_wake"`
	HealthCheckIntervalSeconds int    `json:"health_check_interval_seconds" yaml:"health_check_interval_seconds" toml:"health_check_interval_seconds"`
	HealthCheckTimeoutSeconds  int    `json:"health_check_timeout_seconds" yaml:"health_check_timeout_seconds" toml:"health_check_timeout_seconds"`
	LogDirectory               string `json:"log_directory,omitempty" yaml:"log_directory,omitempty" toml:"log_directory,omitempty"`
	PidDirectory               string `json:"pid_directory,omitempty" yaml:"pid_directory,omitempty" toml:"pid_directory,omitempty"`
}

// FutureService is a placeholder for a service planned but not yet managed
type FutureService struct {
	DisplayName    string `json:"display_name" yaml:"display_name" toml:"display_name"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	EstimatedPhase string `json:"estimated_phase,omitempty" yaml:"estimated_phase,omitempty" toml:"estimated_phase,omitempty"`
}
