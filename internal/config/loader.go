package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".diffparse"
	envPrefix  = "DIFFPARSE"
	systemDir  = "/etc/diffparse"
)

// configExts are the file types looked for, in order, in each search
// directory.
var configExts = []string{"yaml", "yml", "toml", "json"}

// searchDirs returns the config directories, highest priority first.
func searchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return append(dirs, systemDir)
}

// Loader merges defaults, a config file, DIFFPARSE_* environment variables
// and bound flags into a Config.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader searching the working directory, $HOME and
// /etc/diffparse for .diffparse.{yaml,yml,toml,json}.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(configName)
	for _, dir := range searchDirs() {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile uses path instead of searching. Its extension selects the
// decoder.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads every source and validates the result. Flags bound through
// GetViper win over the environment, which wins over the file, which wins
// over defaults. A missing config file is not an error unless it was set
// explicitly.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	for key, value := range defaultValues(cfg) {
		l.v.SetDefault(key, value)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultValues lists every key. Registering them all lets AutomaticEnv
// reach Unmarshal for keys no config file sets.
func defaultValues(cfg *Config) map[string]any {
	return map[string]any{
		"parser.format":                  cfg.Parser.Format,
		"parser.commit_ids_as_revisions": cfg.Parser.CommitIDsAsRevisions,
		"parser.cvs_root":                cfg.Parser.CVSRoot,
		"parser.max_diff_size":           cfg.Parser.MaxDiffSize,
		"parser.strip_prefixes":          cfg.Parser.StripPrefixes,

		"output.format":  cfg.Output.Format,
		"output.file":    cfg.Output.File,
		"output.verbose": cfg.Output.Verbose,
		"output.quiet":   cfg.Output.Quiet,

		"batch.workers":   cfg.Batch.Workers,
		"batch.fail_fast": cfg.Batch.FailFast,

		"log.level": cfg.Log.Level,

		"profile.cpu": cfg.Profile.CPU,
		"profile.mem": cfg.Profile.Mem,
	}
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance, used to bind flags.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	l := NewLoader()
	l.SetConfigFile(path)
	return l.Load()
}

// FindConfigFile returns the config file Load would read from the search
// paths, or "" if there is none.
func FindConfigFile() string {
	for _, dir := range searchDirs() {
		for _, ext := range configExts {
			path := filepath.Join(dir, configName+"."+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				if abs, err := filepath.Abs(path); err == nil {
					return abs
				}
				return path
			}
		}
	}
	return ""
}
