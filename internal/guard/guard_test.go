package guard

import (
	"testing"

	"github.com/smartroots/agribot/internal/core"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		sess core.Session
		want Outcome
	}{
		{"loading", core.Session{Loading: true}, OutcomeLoading},
		{"loading wins over authenticated", core.Session{Loading: true, IsAuthenticated: true}, OutcomeLoading},
		{"unauthenticated", core.Session{}, OutcomeRedirect},
		{"authenticated", core.Session{IsAuthenticated: true}, OutcomeAllow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.sess, "/dashboard")
			if d.Outcome != tc.want {
				t.Errorf("Decide() = %s, want %s", d.Outcome, tc.want)
			}
		})
	}
}

func TestDecide_RedirectPreservesLocation(t *testing.T) {
	d := Decide(core.Session{}, "/dashboard")

	if d.RedirectTo != LoginPath {
		t.Errorf("expected redirect to %s, got %s", LoginPath, d.RedirectTo)
	}
	if d.From != "/dashboard" {
		t.Errorf("requested location not preserved: %q", d.From)
	}
}
