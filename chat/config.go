package chat

import (
	"fmt"
	"strings"
	"sync"
)

// Validation bounds for per-user generation settings. The token floor is 100
// everywhere; an earlier revision accepted 50 on one path and 100 on another,
// and the stricter bound won.
const (
	TemperatureMin = 0.0
	TemperatureMax = 2.0
	MaxTokensMin   = 100
	MaxTokensMax   = 4000
)

// AllowedModels is the fixed allow-list of known model identifiers.
var AllowedModels = []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"}

func modelAllowed(model string) bool {
	for _, m := range AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// Config holds one user's generation settings.
type Config struct {
	Mode        Mode
	Temperature float64
	Model       string
	MaxTokens   int
}

// ConfigStore keeps per-user configs, created lazily with process-wide
// defaults. Configs live for the process lifetime; a validation failure
// during a live turn resets the user back to the defaults.
type ConfigStore struct {
	mu       sync.RWMutex
	defaults Config
	configs  map[int64]Config
}

func NewConfigStore(defaults Config) *ConfigStore {
	if !defaults.Mode.Valid() {
		defaults.Mode = ModeCasual
	}
	return &ConfigStore{
		defaults: defaults,
		configs:  make(map[int64]Config),
	}
}

// Get returns the user's config, creating it from the defaults on first
// access. It never fails.
func (s *ConfigStore) Get(userID int64) Config {
	s.mu.RLock()
	cfg, ok := s.configs[userID]
	s.mu.RUnlock()
	if ok {
		return cfg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[userID]; ok {
		return cfg
	}
	s.configs[userID] = s.defaults
	return s.defaults
}

// Update applies a single-field mutation under the store lock and returns the
// resulting config. Range validation is the caller's job (see Validate).
func (s *ConfigStore) Update(userID int64, fn func(*Config)) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[userID]
	if !ok {
		cfg = s.defaults
	}
	fn(&cfg)
	s.configs[userID] = cfg
	return cfg
}

// Reset puts the user back on the process-wide defaults.
func (s *ConfigStore) Reset(userID int64) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[userID] = s.defaults
	return s.defaults
}

// Defaults returns the process-wide default config.
func (s *ConfigStore) Defaults() Config {
	return s.defaults
}

// Validate checks the four config invariants in order (temperature range,
// model allow-list, token range, mode registry) and reports the first
// violation. It always returns a structured result and never panics.
func Validate(cfg Config) (bool, string) {
	if cfg.Temperature < TemperatureMin || cfg.Temperature > TemperatureMax {
		return false, fmt.Sprintf("temperature must be between %.1f and %.1f", TemperatureMin, TemperatureMax)
	}
	if !modelAllowed(cfg.Model) {
		return false, fmt.Sprintf("unknown model %q; allowed models: %s", cfg.Model, strings.Join(AllowedModels, ", "))
	}
	if cfg.MaxTokens < MaxTokensMin || cfg.MaxTokens > MaxTokensMax {
		return false, fmt.Sprintf("max tokens must be between %d and %d", MaxTokensMin, MaxTokensMax)
	}
	if !cfg.Mode.Valid() {
		return false, fmt.Sprintf("unknown response mode %q", string(cfg.Mode))
	}
	return true, "configuration is valid"
}
