package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestGotoCommand(t *testing.T) {
	root := makeTree(t)
	deep := filepath.Join(root, "alpha", "deep")
	base := filepath.Base(root)

	tests := []struct {
		name           string
		root, target   string
		policy         string
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "fetches missing levels",
			root:        root,
			target:      deep,
			wantContain: []string{"deep [", "selected: " + base + " > alpha > deep"},
		},
		{
			name:           "minitree keeps siblings out",
			root:           root,
			target:         deep,
			policy:         "expandable-with-fetch",
			wantContain:    []string{"alpha [partial]"},
			wantNotContain: []string{"one.txt", "beta"},
		},
		{
			name:           "accessible rows only",
			root:           root,
			target:         deep,
			policy:         "existing-accessible",
			wantContain:    []string{"selected: (none)"},
			wantNotContain: []string{"alpha"},
		},
		{
			name:        "target is the root",
			root:        root,
			target:      root,
			policy:      "existing-accessible",
			wantContain: []string{"selected: " + base},
		},
		{
			name:        "full policy adds a root",
			root:        filepath.Join(root, "beta"),
			target:      deep,
			policy:      "full",
			wantContain: []string{"selected: ", " > deep"},
		},
		{
			name:    "unknown policy",
			root:    root,
			target:  deep,
			policy:  "sometimes",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			gotoPolicy = tt.policy

			output, err := captureOutput(t, func() error {
				return runGoto([]string{tt.root, tt.target})
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("runGoto() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestGotoJSONMarksSelection(t *testing.T) {
	root := makeTree(t)
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, func() error {
		return runGoto([]string{root, filepath.Join(root, "beta")})
	})
	if err != nil {
		t.Fatalf("runGoto() error = %v", err)
	}
	assertJSON(t, output)
	assertContains(t, output, []string{`"selected": true`})
	if strings.Contains(output, "selected:") {
		t.Errorf("text trailer in JSON output:\n%s", output)
	}
}

func TestRowPathOfInvalidRow(t *testing.T) {
	resetFlags()
	s, err := openSession()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	tv, err := s.newTree()
	if err != nil {
		t.Fatal(err)
	}
	if got := rowPath(tv, tv.Selection()); got != "(none)" {
		t.Errorf("rowPath(Nil) = %q", got)
	}
}
