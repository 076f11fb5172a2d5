package config

// Application constants
const (
	AppName   = "sheetetl"
	EnvPrefix = "SHEETETL"

	// Config file names searched when no path is given.
	DefaultConfigFile = "sheetetl.yaml"
	DefaultDotEnvFile = ".env"

	// Source defaults match the standard resource export.
	DefaultSourceFile = "test_data.xlsx"
	DefaultMinDate    = "2022-04-01"
	DefaultMaxDate    = "2022-04-30"
	DateLayout        = "2006-01-02"

	// Storage defaults
	DefaultDatabase = "test_database.sqlite"
	DefaultTable    = "test_data"
	DefaultIfExists = "replace"

	DefaultGroupPolicy = "first"
	DefaultSeparator   = "_"

	// File Paths (relative to the working directory)
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "logs/sheetetl.log"

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogOutput  = "console"
	MaxLogFileSizeMB  = 100
	MaxLogFileAgeDays = 30
	MaxLogFileBackups = 10

	// Telemetry
	DefaultTraceExporter = "none"
	DefaultServiceName   = AppName
)
