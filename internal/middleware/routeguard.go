package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

// ActionKind is what the guard does with a request
type ActionKind int

const (
	ActionAllow ActionKind = iota
	ActionRedirect
)

// Action is the outcome of a guard decision. Location is set for redirects.
type Action struct {
	Kind     ActionKind
	Location string
}

// Guard decides, per request, whether a path may be served.
// It holds no per-request state.
type Guard struct {
	SignInPath     string
	DashboardPath  string
	PublicPrefixes []string
}

// DefaultGuard redirects to /sign-in and /dashboard. The auth surfaces, health check, docs and the
// websocket endpoint (which authenticates its own token) are public.
var DefaultGuard = Guard{
	SignInPath:     "/sign-in",
	DashboardPath:  "/dashboard",
	PublicPrefixes: []string{"/sign-in", "/sign-up", "/health", "/swagger", "/ws"},
}

// NewGuard builds a Guard with custom redirect targets. The sign-in path is always public.
func NewGuard(signInPath, dashboardPath string) Guard {
	g := Guard{
		SignInPath:    signInPath,
		DashboardPath: dashboardPath,
	}
	g.PublicPrefixes = append([]string{signInPath}, DefaultGuard.PublicPrefixes[1:]...)
	return g
}

// DecideRoute applies DefaultGuard
func DecideRoute(p string, authenticated bool) Action {
	return DefaultGuard.Decide(p, authenticated)
}

// Decide maps (path, auth state) to an action. The root path always goes to the dashboard.
func (g Guard) Decide(p string, authenticated bool) Action {
	if p == "/" || p == "" {
		return Action{Kind: ActionRedirect, Location: g.DashboardPath}
	}
	if authenticated || g.IsPublic(p) {
		return Action{Kind: ActionAllow}
	}
	return Action{Kind: ActionRedirect, Location: g.SignInPath}
}

// IsPublic reports whether p is reachable without an identity
func (g Guard) IsPublic(p string) bool {
	for _, prefix := range g.PublicPrefixes {
		if hasPathPrefix(p, prefix) {
			return true
		}
	}
	return false
}

var staticExtensions = map[string]bool{
	"htm": true, "html": true, "css": true, "js": true,
	"jpg": true, "jpeg": true, "webp": true, "png": true, "gif": true, "svg": true,
	"ttf": true, "woff": true, "woff2": true, "ico": true,
	"csv": true, "doc": true, "docx": true, "xls": true, "xlsx": true, "zip": true,
	"webmanifest": true,
}

// MatchesGuard reports whether the guard runs for p.
// API and RPC paths always match. Framework internals and static assets never do.
func MatchesGuard(p string) bool {
	if IsAPIPath(p) {
		return true
	}
	if hasPathPrefix(p, "/_next") {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	return !staticExtensions[ext]
}

// IsAPIPath reports whether p is served to programmatic clients
func IsAPIPath(p string) bool {
	return hasPathPrefix(p, "/api") || hasPathPrefix(p, "/trpc")
}

func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// RouteGuard returns an Echo middleware applying guard to every matched request.
// Identity is resolved once and stored in the request context for downstream handlers.
// API clients get a 401 problem instead of a redirect they cannot follow.
func RouteGuard(resolver IdentityResolver, guard Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p := req.URL.Path
			if !MatchesGuard(p) {
				return next(c)
			}

			authenticated := false
			if claims, err := resolver.ResolveIdentity(req); err == nil {
				authenticated = true
				c.SetRequest(req.WithContext(WithIdentity(req.Context(), claims)))
			}

			action := guard.Decide(p, authenticated)
			if action.Kind == ActionAllow {
				return next(c)
			}

			if !authenticated && action.Location == guard.SignInPath && IsAPIPath(p) {
				return unauthorizedError(c, "authentication required")
			}
			return c.Redirect(http.StatusTemporaryRedirect, action.Location)
		}
	}
}
