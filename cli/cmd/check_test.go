package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckRun(t *testing.T) {
	const incomplete = "@article{a, title = {T}}\n@misc{a, note = {x}}\n"

	tests := []struct {
		name        string
		input       string
		check       Check
		wantErr     bool
		contains    []string
		notContains []string
	}{
		{
			name:  "clean",
			input: sampleBib,
			check: Check{Warnings: true},
		},
		{
			name:  "warnings and missing fields pass",
			input: incomplete,
			check: Check{Warnings: true},
			contains: []string{
				"<stdin>:2:",
				"warning:",
				`article "a": missing author, journal, year`,
			},
		},
		{
			name:     "strict fails",
			input:    incomplete,
			check:    Check{Warnings: true, Strict: true},
			wantErr:  true,
			contains: []string{"warning:"},
		},
		{
			name:        "warnings hidden",
			input:       incomplete,
			check:       Check{},
			contains:    []string{"missing author"},
			notContains: []string{"warning:"},
		},
		{
			name:     "errors fail",
			input:    "@misc{b, note = }\n",
			check:    Check{Warnings: true},
			wantErr:  true,
			contains: []string{"<stdin>:1:", "error:"},
		},
		{
			name:     "context snippet",
			input:    "@misc{b, note = }\n",
			check:    Check{Context: true},
			wantErr:  true,
			contains: []string{"  1 | @misc{b, note = }", "^"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.check
			c.Sources = []string{"-"}

			out, err := run(t, tt.input, c.Run)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Check.Run() error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}

			if err != nil && !errors.Is(err, ErrCheckFailed) {
				t.Errorf("expected ErrCheckFailed, got %v", err)
			}

			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}

			for _, unwanted := range tt.notContains {
				if strings.Contains(out, unwanted) {
					t.Errorf("output contains %q:\n%s", unwanted, out)
				}
			}

			if len(tt.contains) == 0 && out != "" {
				t.Errorf("expected no output, got:\n%s", out)
			}
		})
	}
}

func TestCheckInheritsCrossref(t *testing.T) {
	c := Check{Input: Input{Sources: []string{"-"}}, Strict: true}

	out, err := run(t, sampleBib, func(ctx context.Context) error { return c.Run(ctx) })
	if err != nil {
		t.Fatalf("Check.Run() = %v\n%s", err, out)
	}
}
