package config

// Built-in values used when neither a config file, the environment nor a
// flag sets them.
const (
	DefaultFormat       = "auto"
	DefaultOutput       = "json"
	DefaultLogLevel     = "warn"
	DefaultMaxDiffSize  = 64 << 20
	DefaultBatchWorkers = 0 // one per CPU
)

// DefaultConfig returns the configuration diffparse runs with out of the box.
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			Format:        DefaultFormat,
			MaxDiffSize:   DefaultMaxDiffSize,
			StripPrefixes: []string{},
		},
		Output: OutputConfig{Format: DefaultOutput},
		Batch:  BatchConfig{Workers: DefaultBatchWorkers},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}
