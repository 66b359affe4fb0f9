package ui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShouldUseColor(t *testing.T) {
	// A regular file is never a terminal.
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, tc := range []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NoColorWins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"Force", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"Disabled", map[string]string{"CLICOLOR": "0"}, false},
		{"NotATerminal", nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR_FORCE", "CLICOLOR"} {
				t.Setenv(k, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(f); got != tc.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	withColor(t, true)
	t.Setenv("NO_COLOR", "1")

	Setup(os.Stdout)
	if !noColor {
		t.Error("Setup should disable color when NO_COLOR is set")
	}
}
