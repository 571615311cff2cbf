package chat

import (
	"strings"
	"testing"
)

func testDefaults() Config {
	return Config{
		Mode:        ModeCasual,
		Temperature: 0.3,
		Model:       "gpt-4o-mini",
		MaxTokens:   300,
	}
}

func TestConfigStoreLazyDefaults(t *testing.T) {
	t.Parallel()

	s := NewConfigStore(testDefaults())
	got := s.Get(42)
	if got != testDefaults() {
		t.Fatalf("got %+v, want defaults %+v", got, testDefaults())
	}

	// Idempotent: a second read returns the same config.
	if again := s.Get(42); again != got {
		t.Fatalf("second Get returned %+v, want %+v", again, got)
	}
}

func TestConfigStoreUpdateSingleField(t *testing.T) {
	t.Parallel()

	s := NewConfigStore(testDefaults())
	got := s.Update(1, func(c *Config) { c.Temperature = 1.5 })
	if got.Temperature != 1.5 {
		t.Errorf("temperature = %g, want 1.5", got.Temperature)
	}
	if got.Model != "gpt-4o-mini" || got.Mode != ModeCasual || got.MaxTokens != 300 {
		t.Errorf("other fields changed: %+v", got)
	}
}

func TestConfigStoreReset(t *testing.T) {
	t.Parallel()

	s := NewConfigStore(testDefaults())
	s.Update(7, func(c *Config) { c.Model = "gpt-4o"; c.MaxTokens = 4000 })
	got := s.Reset(7)
	if got != testDefaults() {
		t.Fatalf("after reset got %+v, want defaults", got)
	}
	if s.Get(7) != testDefaults() {
		t.Fatalf("Get after reset returned %+v, want defaults", s.Get(7))
	}
}

func TestValidateOrderAndMessages(t *testing.T) {
	t.Parallel()

	valid := testDefaults()

	tests := []struct {
		name    string
		mutate  func(*Config)
		ok      bool
		wantSub string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
			ok:     true,
		},
		{
			name:    "temperature_too_low",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantSub: "temperature",
		},
		{
			name:    "temperature_too_high",
			mutate:  func(c *Config) { c.Temperature = 2.1 },
			wantSub: "temperature",
		},
		{
			name:    "unknown_model",
			mutate:  func(c *Config) { c.Model = "gpt-9" },
			wantSub: "unknown model",
		},
		{
			name:    "tokens_below_floor",
			mutate:  func(c *Config) { c.MaxTokens = 99 },
			wantSub: "max tokens",
		},
		{
			name:    "tokens_above_ceiling",
			mutate:  func(c *Config) { c.MaxTokens = 4001 },
			wantSub: "max tokens",
		},
		{
			name:    "unknown_mode",
			mutate:  func(c *Config) { c.Mode = Mode("pirate") },
			wantSub: "unknown response mode",
		},
		{
			// Temperature is checked before the model, so the
			// temperature diagnostic wins when both are wrong.
			name:    "temperature_checked_first",
			mutate:  func(c *Config) { c.Temperature = 3; c.Model = "nope" },
			wantSub: "temperature",
		},
		{
			name:    "model_checked_before_tokens",
			mutate:  func(c *Config) { c.Model = "nope"; c.MaxTokens = 1 },
			wantSub: "unknown model",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			ok, msg := Validate(cfg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (msg %q)", ok, tt.ok, msg)
			}
			if msg == "" {
				t.Fatal("message must never be empty")
			}
			if !tt.ok && !strings.Contains(msg, tt.wantSub) {
				t.Errorf("message %q does not mention %q", msg, tt.wantSub)
			}
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	t.Parallel()

	cfg := testDefaults()
	before := cfg
	if ok, _ := Validate(cfg); !ok {
		t.Fatal("defaults must validate")
	}
	if cfg != before {
		t.Fatalf("Validate mutated its input: %+v", cfg)
	}
}

func TestTokenRangeIsCanonical(t *testing.T) {
	t.Parallel()

	// 50 was accepted by one legacy path; the canonical floor is 100.
	cfg := testDefaults()
	cfg.MaxTokens = 50
	if ok, _ := Validate(cfg); ok {
		t.Fatal("maxTokens=50 must be rejected")
	}
	cfg.MaxTokens = 100
	if ok, msg := Validate(cfg); !ok {
		t.Fatalf("maxTokens=100 must be accepted, got %q", msg)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, m := range Modes() {
		if got, ok := ParseMode(string(m)); !ok || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", string(m), string(got), ok)
		}
		if m.Instruction() == "" {
			t.Errorf("mode %q has empty instruction", string(m))
		}
	}
	if _, ok := ParseMode("pirate"); ok {
		t.Error("ParseMode accepted an unregistered mode")
	}
}
