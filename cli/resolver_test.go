package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func loadConfig(t *testing.T, src string) config {
	t.Helper()

	r, err := resolve(context.Background())(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cfg, ok := r.(config)
	if !ok {
		t.Fatalf("resolver is %T, want config", r)
	}

	return cfg
}

func TestResolveFlatten(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want map[string]any
	}{
		{
			name: "hyphenated keys",
			src:  "log-level: debug\nlog-pretty: false\n",
			want: map[string]any{"log-level": "debug", "log-pretty": false},
		},
		{
			name: "underscored keys",
			src:  "log_level: debug\n",
			want: map[string]any{"log-level": "debug"},
		},
		{
			name: "nested mapping",
			src:  "log:\n  level: trace\n  format: json\n",
			want: map[string]any{"log-level": "trace", "log-format": "json"},
		},
		{
			name: "numbers become strings",
			src:  "indent: 4\nratio: 1.5\nneg: -2\n",
			want: map[string]any{"indent": "4", "ratio": "1.5", "neg": "-2"},
		},
		{
			name: "empty document",
			src:  "",
			want: map[string]any{},
		},
		{
			name: "invalid document ignored",
			src:  "log: [unclosed\n",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, tt.src)

			if len(cfg) != len(tt.want) {
				t.Errorf("got %d keys %v, want %d", len(cfg), cfg, len(tt.want))
			}

			for k, v := range tt.want {
				if cfg[k] != v {
					t.Errorf("cfg[%q] = %#v, want %#v", k, cfg[k], v)
				}
			}
		})
	}
}

func TestResolveList(t *testing.T) {
	cfg := loadConfig(t, "bibinputs:\n  - /a\n  - /b\n")

	list, ok := cfg["bibinputs"].([]any)
	if !ok || len(list) != 2 || list[0] != "/a" || list[1] != "/b" {
		t.Errorf("bibinputs = %#v, want [/a /b]", cfg["bibinputs"])
	}
}

func TestConfigResolve(t *testing.T) {
	cfg := config{"log-level": "debug"}

	got, err := cfg.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
	if err != nil || got != "debug" {
		t.Errorf("Resolve(log-level) = %v, %v; want debug", got, err)
	}

	got, err = cfg.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "missing"}})
	if err != nil || got != nil {
		t.Errorf("Resolve(missing) = %v, %v; want nil", got, err)
	}
}
