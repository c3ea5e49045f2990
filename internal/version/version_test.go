// ABOUTME: Tests for version constants
// ABOUTME: Guards against empty or placeholder product identification

package version

import (
	"strings"
	"testing"
)

func TestConstantsDefined(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		if tt.value == "" {
			t.Errorf("%s is empty", tt.name)
		}
		if len(tt.value) > 100 {
			t.Errorf("%s is unreasonably long: %q", tt.name, tt.value)
		}
		for _, placeholder := range []string{"TODO", "FIXME", "XXX", "placeholder"} {
			if strings.EqualFold(tt.value, placeholder) {
				t.Errorf("%s is a placeholder: %q", tt.name, tt.value)
			}
		}
	}
}

func TestVersionLooksLikeRelease(t *testing.T) {
	// "0.1.0" style; a dev build would carry no dots and fail loudly here.
	if strings.Count(Version, ".") != 2 {
		t.Errorf("expected a three-part version, got %q", Version)
	}
}
