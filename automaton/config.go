package automaton

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config holds the process-wide settings read by every constructor.
type Config struct {
	// ValidateAutomata runs validation when an automaton is constructed.
	ValidateAutomata bool `toml:"validate_automata"`
	// AllowMutableAutomata keeps the caller's parameter containers instead
	// of copying them, and hands them back from Params without a copy.
	AllowMutableAutomata bool `toml:"allow_mutable_automata"`
	// LogLevel is only consumed by command line clients.
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the settings used when nothing was configured.
func DefaultConfig() Config {
	return Config{
		ValidateAutomata: true,
		LogLevel:         "warn",
	}
}

var (
	configMu sync.RWMutex
	current  = DefaultConfig()
)

// Configure replaces the process-wide settings and returns the old ones.
func Configure(c Config) Config {
	configMu.Lock()
	defer configMu.Unlock()
	old := current
	current = c
	return old
}

// CurrentConfig returns the process-wide settings.
func CurrentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return current
}

// ParseConfig decodes TOML text on top of DefaultConfig.
func ParseConfig(data string) (Config, error) {
	c := DefaultConfig()
	md, err := toml.Decode(data, &c)
	if err != nil {
		return c, err
	}
	return c, checkUndecoded(md)
}

// LoadConfig decodes a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, err
	}
	return c, checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("unknown config keys: %s", strings.Join(names, ", "))
}
