package config

import (
	"os"
	"testing"
	"time"
)

func TestGetOr(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		defValue string
		want     string
	}{
		{
			name:     "returns env value when set",
			key:      "TEST_KEY_1",
			envValue: "from_env",
			defValue: "default",
			want:     "from_env",
		},
		{
			name:     "returns default when env not set",
			key:      "TEST_KEY_2_UNSET",
			envValue: "",
			defValue: "default",
			want:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getOr(tt.key, tt.defValue)
			if got != tt.want {
				t.Errorf("getOr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		defValue bool
		want     bool
	}{
		{name: "recognizes '1' as true", key: "TEST_BOOL_1", envValue: "1", defValue: false, want: true},
		{name: "recognizes 'true' as true", key: "TEST_BOOL_2", envValue: "true", defValue: false, want: true},
		{name: "recognizes 'Yes' with spaces as true", key: "TEST_BOOL_3", envValue: " Yes ", defValue: false, want: true},
		{name: "recognizes '0' as false", key: "TEST_BOOL_4", envValue: "0", defValue: true, want: false},
		{name: "recognizes 'no' as false", key: "TEST_BOOL_5", envValue: "no", defValue: true, want: false},
		{name: "returns default when unrecognized", key: "TEST_BOOL_6", envValue: "maybe", defValue: false, want: false},
		{name: "returns default when invalid", key: "TEST_BOOL_7", envValue: "xyz", defValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getBool(tt.key, tt.defValue)
			if got != tt.want {
				t.Errorf("getBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		defValue time.Duration
		want     time.Duration
	}{
		{
			name:     "parses duration string",
			key:      "TEST_DUR_1",
			envValue: "30m",
			defValue: time.Hour,
			want:     30 * time.Minute,
		},
		{
			name:     "parses compound duration",
			key:      "TEST_DUR_2",
			envValue: "1h30m",
			defValue: time.Hour,
			want:     90 * time.Minute,
		},
		{
			name:     "returns default when empty",
			key:      "TEST_DUR_3",
			envValue: "",
			defValue: 4 * time.Hour,
			want:     4 * time.Hour,
		},
		{
			name:     "returns default when invalid",
			key:      "TEST_DUR_4",
			envValue: "soon",
			defValue: 5 * time.Minute,
			want:     5 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getDuration(tt.key, tt.defValue)
			if got != tt.want {
				t.Errorf("getDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetStringSlice(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		defValue string
		want     []string
	}{
		{
			name:     "parses comma-separated values",
			key:      "TEST_SLICE_1",
			envValue: "log,kafka,postgres",
			defValue: "",
			want:     []string{"log", "kafka", "postgres"},
		},
		{
			name:     "trims whitespace",
			key:      "TEST_SLICE_2",
			envValue: " log , kafka , postgres ",
			defValue: "",
			want:     []string{"log", "kafka", "postgres"},
		},
		{
			name:     "uses default when empty",
			key:      "TEST_SLICE_3",
			envValue: "",
			defValue: "log",
			want:     []string{"log"},
		},
		{
			name:     "returns nil when both empty",
			key:      "TEST_SLICE_4",
			envValue: "",
			defValue: "",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getStringSlice(tt.key, tt.defValue)
			if len(got) != len(tt.want) {
				t.Fatalf("getStringSlice() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("getStringSlice()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_ADDR", "SESSION_TTL", "SESSION_BACKEND", "OUTPUTS",
		"ADMIN_TOKEN", "HONEYPOT_SECRET", "SCORING_PARAMS_PATH",
	} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.ServerAddr != ":19790" {
		t.Errorf("ServerAddr = %q, want :19790", cfg.ServerAddr)
	}
	if cfg.SessionTTL != 4*time.Hour {
		t.Errorf("SessionTTL = %v, want 4h", cfg.SessionTTL)
	}
	if cfg.SessionBackend != "memory" {
		t.Errorf("SessionBackend = %q, want memory", cfg.SessionBackend)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0] != "log" {
		t.Errorf("Outputs = %v, want [log]", cfg.Outputs)
	}
	if cfg.AdminToken != "" {
		t.Errorf("AdminToken should default to empty, got %q", cfg.AdminToken)
	}
}
