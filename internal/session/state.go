package session

import "medadmin/m/domain"

type Kind int

const (
	KindPending Kind = iota
	KindAnonymous
	KindAuthenticated
)

func (k Kind) String() string {
	switch k {
	case KindAnonymous:
		return "anonymous"
	case KindAuthenticated:
		return "authenticated"
	default:
		return "pending"
	}
}

// State is what the auth provider currently knows about a visitor. The zero
// value is Pending.
type State struct {
	kind    Kind
	session domain.Session
}

func Pending() State   { return State{kind: KindPending} }
func Anonymous() State { return State{kind: KindAnonymous} }

func Authenticated(s domain.Session) State {
	return State{kind: KindAuthenticated, session: s}
}

func (s State) Kind() Kind { return s.kind }

// Session returns the authenticated session; ok is false for any other state.
func (s State) Session() (domain.Session, bool) {
	if s.kind != KindAuthenticated {
		return domain.Session{}, false
	}
	return s.session, true
}
