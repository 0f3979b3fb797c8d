// Package guard decides what an unauthenticated or still-loading session
// is allowed to see. It is a pure function of the session; rendering and
// navigation belong to the caller.
package guard

import "github.com/smartroots/agribot/internal/core"

// LoginPath is the entry point unauthenticated viewers are sent to.
const LoginPath = "/login"

// Outcome is the guard's verdict for a request.
type Outcome int

const (
	// OutcomeLoading means the session restore check has not resolved;
	// show a loading indicator instead of content.
	OutcomeLoading Outcome = iota
	// OutcomeRedirect means the viewer is not signed in and must be sent
	// to the login entry point.
	OutcomeRedirect
	// OutcomeAllow means the protected content may be rendered unchanged.
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decision carries the verdict plus the redirect bookkeeping. From holds
// the originally requested location so a login flow can return the viewer
// there afterwards.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
	From       string
}

// Decide evaluates the session for a requested location.
func Decide(sess core.Session, requested string) Decision {
	if sess.Loading {
		return Decision{Outcome: OutcomeLoading}
	}
	if !sess.IsAuthenticated {
		return Decision{
			Outcome:    OutcomeRedirect,
			RedirectTo: LoginPath,
			From:       requested,
		}
	}
	return Decision{Outcome: OutcomeAllow}
}
