package client

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	SignInRoute = "/signin"
	HomeRoute   = "/"
)

// Access is the requirement a view places on the session.
type Access int

const (
	Public Access = iota
	Protected
	AdminOnly
)

// Decision is the outcome of a guard check. Redirect is empty when Allowed.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Guard decides whether a view may be entered with the current session.
// Routes not listed are public.
type Guard struct {
	session *Session
	routes  map[string]Access
}

// NewGuard returns a guard over session with the given route table.
func NewGuard(session *Session, routes map[string]Access) *Guard {
	table := make(map[string]Access, len(routes))
	for route, access := range routes {
		table[route] = access
	}
	return &Guard{session: session, routes: table}
}

// DefaultRoutes mirrors the views of the todolist web app.
func DefaultRoutes() map[string]Access {
	return map[string]Access{
		"/":        Protected,
		"/profile": Protected,
		"/todos":   Protected,
		"/admin":   AdminOnly,
		"/users":   AdminOnly,
	}
}

// Check evaluates route. Signed-out visitors of a protected view go to the
// sign-in page; signed-in non-admins of an admin view go home.
func (g *Guard) Check(route string) Decision {
	access := g.routes[route]
	if access == Public {
		return Decision{Allowed: true}
	}
	snap, ok := g.session.Current()
	if !ok {
		return Decision{Redirect: SignInRoute}
	}
	if access == AdminOnly && !snap.IsAdmin() {
		return Decision{Redirect: HomeRoute}
	}
	return Decision{Allowed: true}
}
