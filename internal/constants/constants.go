// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Application identity
const (
	// AppName is used for XDG directories and environment variable prefixes
	AppName = "devmanager"

	// EnvConfigPath overrides the services document location
	EnvConfigPath = "DEVMANAGER_CONFIG"

	// EnvServerURL points the remote commands at a running status API
	EnvServerURL = "DEVMANAGER_SERVER"

	// EnvMode selects the log formatter ("production" switches to JSON)
	EnvMode = "DEVMANAGER_ENV"

	// DefaultServicesFile is the services document name inside the config directory
	DefaultServicesFile = "services.json"

	// GlobalConfigFile is the preferences file name inside the config directory
	GlobalConfigFile = "config.toml"

	// Version is reported by the status API and the CLI
	Version = "0.1.0"
)

// Network and Port Constants
const (
	// DefaultServerHost keeps the status API on the loopback interface
	DefaultServerHost = "127.0.0.1"

	// DefaultServerPort is the default port for the status API server
	DefaultServerPort = 8089
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for devmanager directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for devmanager config files
	FilePermissions = 0644
)

// HTTP Configuration
const (
	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout
	DefaultServerWriteTimeout = 10 * time.Second

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 10 * time.Second
)

// Monitoring
const (
	// DefaultPollInterval is the time between two scheduled polling passes
	DefaultPollInterval = 3 * time.Second

	// DefaultPollConcurrency bounds the number of probes running at once in a pass
	DefaultPollConcurrency = 4

	// DefaultStatusTimeout bounds a status command run by the process probe
	DefaultStatusTimeout = 5 * time.Second

	// DefaultHTTPProbeTimeout is the deadline of a single health endpoint request
	DefaultHTTPProbeTimeout = 5 * time.Second

	// DefaultContainerCountTimeout bounds the container precondition check
	DefaultContainerCountTimeout = 5 * time.Second

	// ProfileListCacheTTL lets every profile probe in one pass share one list invocation
	ProfileListCacheTTL = 2 * time.Second

	// LoopStopGrace is how long Stop waits for the polling loop to exit
	LoopStopGrace = 2 * time.Second

	// ProfileWatchDebounce coalesces bursts of profile directory events
	ProfileWatchDebounce = 500 * time.Millisecond
)

// Profiles
const (
	// DefaultProfilesDir is the container runtime profile directory, relative to $HOME
	DefaultProfilesDir = ".colima"

	// DefaultPlaceholderID is the configured entry superseded by discovered profiles
	DefaultPlaceholderID = "colima"

	// DefaultProfileListCommand prints one JSON record per profile
	DefaultProfileListCommand = "colima list --json"

	// ProfileBinary is the runtime CLI used in synthetic profile commands
	ProfileBinary = "colima"

	// ProfileStartupOrder is the startup order assigned to synthetic profile entries
	ProfileStartupOrder = 100

	// BytesPerGiB converts memory byte counts into GiB
	BytesPerGiB = 1 << 30
)

// Shell and output
const (
	// DefaultShell runs configured command lines
	DefaultShell = "/bin/bash"

	// FallbackShell is used when DefaultShell is not installed
	FallbackShell = "/bin/sh"

	// MaxLoggedOutput truncates command output attached to logs and errors
	MaxLoggedOutput = 200

	// ProcessWaitDelay bounds how long Wait blocks on pipes after a kill
	ProcessWaitDelay = 2 * time.Second
)

// Container counting backends
const (
	// ContainerCounterCLI counts containers through `docker ps`
	ContainerCounterCLI = "cli"

	// ContainerCounterAPI counts containers through the Docker Engine API
	ContainerCounterAPI = "docker-api"
)

// WebSocket
const (
	// WebSocketWriteTimeout bounds one snapshot write to a subscriber
	WebSocketWriteTimeout = 10 * time.Second

	// SubscriberBuffer is the snapshot channel depth per subscriber
	SubscriberBuffer = 4
)
