// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Source Catalog - provider descriptors that replace the built-in registry when set.
const (
	CatalogProviders = "catalog.providers"
)

// Address Builder - these keys govern how provider addresses are constructed.
const (
	AddressStrictEpisodes = "address.strict_episodes"
)

// Throttle Guard - these keys size the token bucket consulted before automatic retries.
const (
	ThrottleCapacity   = "throttle.capacity"
	ThrottleRefillRate = "throttle.refill_rate"
)

// Preference Store - these keys select the persistence backend and record granularity.
const (
	PreferenceBackend = "preference.backend"
	PreferencePerType = "preference.per_type"
)

// Probing - these keys configure the playable-media detector.
const (
	ProbeEnabled = "probe.enabled"
	ProbeTimeout = "probe.timeout"
)

// One-shot resolution.
const (
	ResolveMaxWait = "resolve.max_wait"
)

// Resolution Service - these keys configure the HTTP host of the controller.
const (
	ServerAddress    = "server.address"
	ServerSessionTTL = "server.session_ttl"
)

// Interactive watch surface.
const (
	WatchOpenOnSettle = "watch.open_on_settle"
	WatchBrowser      = "watch.browser"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
