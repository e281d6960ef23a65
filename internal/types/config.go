package types

type RunMode string

const (
	// ModeLocal runs the API server and the billing scheduler in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server; billing is triggered through the cron endpoint
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
