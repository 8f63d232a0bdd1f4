// Package guard decides whether protected views may render, derived purely
// from session state. It holds no state of its own beyond a one-time
// redirect latch and is re-evaluated by callers on state change.
package guard

// Decision is the guard's verdict for the current session snapshot.
type Decision struct {
	// ShouldRender is true only when hydration finished and a token is
	// present. Callers must never show protected content otherwise.
	ShouldRender bool
	// IsLoading is true until hydration finishes; callers render a neutral
	// loading state, never a premature redirect.
	IsLoading bool
}

// Evaluate derives the verdict from the hydration flag and token.
func Evaluate(hydrated bool, token string) Decision {
	return Decision{
		ShouldRender: hydrated && token != "",
		IsLoading:    !hydrated,
	}
}

// Guard adds the one-time redirect behavior on top of Evaluate: once the
// session is hydrated and unauthenticated, the redirect fires exactly once.
type Guard struct {
	redirected bool
	redirect   func()
}

// New returns a Guard that invokes redirect when an unauthenticated,
// hydrated session is first observed.
func New(redirect func()) *Guard {
	return &Guard{redirect: redirect}
}

// Check evaluates the snapshot and fires the redirect if warranted.
func (g *Guard) Check(hydrated bool, token string) Decision {
	d := Evaluate(hydrated, token)
	if hydrated && token == "" && !g.redirected {
		g.redirected = true
		if g.redirect != nil {
			g.redirect()
		}
	}
	return d
}
