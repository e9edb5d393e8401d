package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"devmanager/internal/constants"
	"devmanager/internal/validation"
	"devmanager/internal/xdg"
)

// GlobalConfig represents the user's devmanager preferences (config.toml)
type GlobalConfig struct {
	Services GlobalServicesConfig `toml:"services"`
	Monitor  MonitorConfig        `toml:"monitor"`
	Probe    ProbeConfig          `toml:"probe"`
	Profiles ProfilesConfig       `toml:"profiles"`
	Server   ServerConfig         `toml:"server"`
	Log      LogConfig            `toml:"log"`
}

type GlobalServicesConfig struct {
	ConfigPath string `toml:"config_path"` // Location of services.json
}

type MonitorConfig struct {
	IntervalSeconds int `toml:"interval_seconds"` // 0 defers to the services document
	Concurrency     int `toml:"concurrency"`
}

type ProbeConfig struct {
	StatusTimeoutSeconds int    `toml:"status_timeout_seconds"` // 0 defers to the services document
	HTTPTimeoutSeconds   int    `toml:"http_timeout_seconds"`
	ContainerCounter     string `toml:"container_counter"` // "cli" or "docker-api"
	Shell                string `toml:"shell"`
}

type ProfilesConfig struct {
	Disabled      bool   `toml:"disabled"`
	Directory     string `toml:"directory"`
	PlaceholderID string `toml:"placeholder_id"`
	ListCommand   string `toml:"list_command"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Monitor: MonitorConfig{
			Concurrency: constants.DefaultPollConcurrency,
		},
		Probe: ProbeConfig{
			ContainerCounter: constants.ContainerCounterCLI,
		},
		Profiles: ProfilesConfig{
			Directory:     "~/" + constants.DefaultProfilesDir,
			PlaceholderID: constants.DefaultPlaceholderID,
			ListCommand:   constants.DefaultProfileListCommand,
		},
		Server: ServerConfig{
			Host: constants.DefaultServerHost,
			Port: constants.DefaultServerPort,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadGlobalConfig loads the global configuration from the XDG config directory.
// A missing file yields the defaults.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFrom(filepath.Join(configDir, constants.GlobalConfigFile))
}

// LoadGlobalConfigFrom loads the global configuration from path
func LoadGlobalConfigFrom(path string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.expandPaths()
			return config, nil
		}
		return nil, err
	}

	var loaded GlobalConfig
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Apply defaults for any missing values
	config.merge(&loaded)
	config.expandPaths()

	if err := ValidateGlobalConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (g *GlobalConfig) merge(o *GlobalConfig) {
	if o.Services.ConfigPath != "" {
		g.Services.ConfigPath = o.Services.ConfigPath
	}
	if o.Monitor.IntervalSeconds != 0 {
		g.Monitor.IntervalSeconds = o.Monitor.IntervalSeconds
	}
	if o.Monitor.Concurrency != 0 {
		g.Monitor.Concurrency = o.Monitor.Concurrency
	}
	if o.Probe.StatusTimeoutSeconds != 0 {
		g.Probe.StatusTimeoutSeconds = o.Probe.StatusTimeoutSeconds
	}
	if o.Probe.HTTPTimeoutSeconds != 0 {
		g.Probe.HTTPTimeoutSeconds = o.Probe.HTTPTimeoutSeconds
	}
	if o.Probe.ContainerCounter != "" {
		g.Probe.ContainerCounter = o.Probe.ContainerCounter
	}
	if o.Probe.Shell != "" {
		g.Probe.Shell = o.Probe.Shell
	}
	g.Profiles.Disabled = o.Profiles.Disabled
	if o.Profiles.Directory != "" {
		g.Profiles.Directory = o.Profiles.Directory
	}
	if o.Profiles.PlaceholderID != "" {
		g.Profiles.PlaceholderID = o.Profiles.PlaceholderID
	}
	if o.Profiles.ListCommand != "" {
		g.Profiles.ListCommand = o.Profiles.ListCommand
	}
	if o.Server.Host != "" {
		g.Server.Host = o.Server.Host
	}
	if o.Server.Port != 0 {
		g.Server.Port = o.Server.Port
	}
	if o.Log.Level != "" {
		g.Log.Level = o.Log.Level
	}
}

// Save writes the global configuration to path
func (g *GlobalConfig) Save(path string) error {
	data, err := toml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, constants.FilePermissions)
}

// ValidateGlobalConfig validates the global configuration
func ValidateGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := validation.PortNumber("server.port", config.Server.Port); err != nil {
		return err
	}
	if err := validation.NonNegative("monitor.interval_seconds", config.Monitor.IntervalSeconds); err != nil {
		return err
	}
	if config.Monitor.Concurrency < 1 {
		return fmt.Errorf("monitor.concurrency must be at least 1")
	}
	if err := validation.NonNegative("probe.status_timeout_seconds", config.Probe.StatusTimeoutSeconds); err != nil {
		return err
	}
	if err := validation.NonNegative("probe.http_timeout_seconds", config.Probe.HTTPTimeoutSeconds); err != nil {
		return err
	}
	switch config.Probe.ContainerCounter {
	case constants.ContainerCounterCLI, constants.ContainerCounterAPI:
	default:
		return fmt.Errorf("probe.container_counter must be %q or %q", constants.ContainerCounterCLI, constants.ContainerCounterAPI)
	}
	if err := validation.ShellCommand(config.Probe.Shell); err != nil {
		return err
	}
	return validation.Identifier("profiles.placeholder_id", config.Profiles.PlaceholderID)
}

func (g *GlobalConfig) expandPaths() {
	g.Services.ConfigPath = xdg.ExpandHome(g.Services.ConfigPath)
	g.Profiles.Directory = xdg.ExpandHome(g.Profiles.Directory)
}

// Settings are the effective monitor and probe settings after combining the
// global preferences, the services document and the built-in defaults
type Settings struct {
	PollInterval time.Duration
	Concurrency  int
	Probe        ProbeDefaults
}

// ResolveSettings combines preferences, document settings and defaults, in
// that order of precedence
func ResolveSettings(global *GlobalConfig, doc *Document) Settings {
	settings := Settings{
		PollInterval: constants.DefaultPollInterval,
		Concurrency:  constants.DefaultPollConcurrency,
		Probe:        DefaultProbeDefaults(),
	}

	if doc != nil {
		if s := doc.GlobalSettings.HealthCheckIntervalSeconds; s > 0 {
			settings.PollInterval = time.Duration(s) * time.Second
		}
		if s := doc.GlobalSettings.HealthCheckTimeoutSeconds; s > 0 {
			settings.Probe.StatusTimeout = time.Duration(s) * time.Second
			settings.Probe.HTTPTimeout = time.Duration(s) * time.Second
		}
	}

	if global != nil {
		if s := global.Monitor.IntervalSeconds; s > 0 {
			settings.PollInterval = time.Duration(s) * time.Second
		}
		if global.Monitor.Concurrency > 0 {
			settings.Concurrency = global.Monitor.Concurrency
		}
		if s := global.Probe.StatusTimeoutSeconds; s > 0 {
			settings.Probe.StatusTimeout = time.Duration(s) * time.Second
		}
		if s := global.Probe.HTTPTimeoutSeconds; s > 0 {
			settings.Probe.HTTPTimeout = time.Duration(s) * time.Second
		}
	}

	return settings
}
