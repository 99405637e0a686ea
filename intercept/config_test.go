package intercept

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/callcache/cache"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callcache.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileOptions(t *testing.T) {
	path := writeConfig(t, `
match_rules:
  - "List.*"
  - "Describe.*"
ttl: 5m
exclude_params:
  - ClientRequestToken
call_log: true
suppress_warnings: true
`)

	f, err := LoadFileOptions(path)
	if err != nil {
		t.Fatalf("LoadFileOptions failed: %v", err)
	}

	opts, err := f.Options(cache.NewMemoryStore(10))
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}

	if len(opts.MatchRules) != 2 || opts.MatchRules[0] != "List.*" {
		t.Errorf("MatchRules = %v", opts.MatchRules)
	}
	if opts.TTL != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", opts.TTL)
	}
	if len(opts.ExcludeParams) != 1 || opts.ExcludeParams[0] != "ClientRequestToken" {
		t.Errorf("ExcludeParams = %v", opts.ExcludeParams)
	}
	if !opts.CallLog || !opts.SuppressWarnings {
		t.Errorf("flags = (%v, %v), want both true", opts.CallLog, opts.SuppressWarnings)
	}

	if err := opts.Validate(); err != nil {
		t.Errorf("loaded options should validate, got %v", err)
	}
}

func TestLoadFileOptions_Defaults(t *testing.T) {
	path := writeConfig(t, `match_rules: ["Get.*"]`)

	f, err := LoadFileOptions(path)
	if err != nil {
		t.Fatalf("LoadFileOptions failed: %v", err)
	}
	opts, err := f.Options(cache.NewMemoryStore(10))
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}

	if opts.TTL != 0 {
		t.Errorf("TTL = %v, want 0 (defaulted later by the policy)", opts.TTL)
	}
	if opts.CallLog || opts.SuppressWarnings {
		t.Error("flags should default to false")
	}
}

func TestLoadFileOptions_BadTTL(t *testing.T) {
	path := writeConfig(t, `ttl: "soon"`)

	f, err := LoadFileOptions(path)
	if err != nil {
		t.Fatalf("LoadFileOptions failed: %v", err)
	}
	if _, err := f.Options(cache.NewMemoryStore(10)); err == nil {
		t.Error("Options should reject an unparsable ttl")
	}
}

func TestLoadFileOptions_Missing(t *testing.T) {
	if _, err := LoadFileOptions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFileOptions should fail for a missing file")
	}
}

func TestLoadFileOptions_BadYAML(t *testing.T) {
	path := writeConfig(t, "match_rules: [unterminated")
	if _, err := LoadFileOptions(path); err == nil {
		t.Error("LoadFileOptions should fail for malformed YAML")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"missing store", Options{}, cache.ErrNilStore},
		{"valid", Options{Store: cache.NewMemoryStore(10), MatchRules: []string{"List.*"}}, nil},
		{"invalid rule", Options{Store: cache.NewMemoryStore(10), MatchRules: []string{"("}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			case tt.name == "invalid rule":
				if err == nil {
					t.Error("Validate() should reject invalid rules")
				}
			default:
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
			}
		})
	}
}
