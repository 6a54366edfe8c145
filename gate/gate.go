// Package gate decides, per navigation, whether a request under the members
// area may proceed.
//
// The decision reads the role claim of an unverified token. It exists so
// users are not shown pages they cannot use; it is not a security perimeter.
// Bypassing it only renders a page whose API calls the server will refuse.
package gate

import (
	"net/url"
	"strings"

	"github.com/careerlink/session-gate/token"
)

// Roles issued by the identity service.
const (
	RoleAdmin    = "ADMIN"
	RoleUser     = "USER"
	RoleEmployer = "EMP"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectSignIn
	RedirectForbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectSignIn:
		return "redirect_sign_in"
	case RedirectForbidden:
		return "redirect_forbidden"
	default:
		return "unknown"
	}
}

// Decision is the result for one navigation. Location is empty for Allow.
type Decision struct {
	Outcome  Outcome
	Location string
	Claims   token.Claims // decoded claims, when a token was inspected
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Policy restricts everything under Prefix to a single role.
type Policy struct {
	Prefix string
	Role   string
}

type Config struct {
	ProtectedPrefix string
	LoginPath       string
	ForbiddenPath   string
	NextParam       string
	Policies        []Policy
}

// DefaultPolicies maps the admin, user and emp sub-areas of prefix to their roles.
func DefaultPolicies(prefix string) []Policy {
	return []Policy{
		{Prefix: prefix + "/admin", Role: RoleAdmin},
		{Prefix: prefix + "/user", Role: RoleUser},
		{Prefix: prefix + "/emp", Role: RoleEmployer},
	}
}

// DefaultConfig protects /members.
func DefaultConfig() Config {
	return Config{
		ProtectedPrefix: "/members",
		LoginPath:       "/login",
		ForbiddenPath:   "/forbidden",
		NextParam:       "next",
		Policies:        DefaultPolicies("/members"),
	}
}

// Gate is stateless and safe for concurrent use.
type Gate struct {
	config Config
}

func New(config Config) *Gate {
	defaults := DefaultConfig()
	if config.ProtectedPrefix == "" {
		config.ProtectedPrefix = defaults.ProtectedPrefix
	}
	if config.LoginPath == "" {
		config.LoginPath = defaults.LoginPath
	}
	if config.ForbiddenPath == "" {
		config.ForbiddenPath = defaults.ForbiddenPath
	}
	if config.NextParam == "" {
		config.NextParam = defaults.NextParam
	}
	if config.Policies == nil {
		config.Policies = DefaultPolicies(config.ProtectedPrefix)
	}
	return &Gate{config: config}
}

func (g *Gate) Config() Config {
	return g.config
}

// Protected reports whether path falls under the protected prefix.
func (g *Gate) Protected(path string) bool {
	return strings.HasPrefix(path, g.config.ProtectedPrefix)
}

// Decide applies the gate to path and rawQuery with the token presented by
// the request. An empty rawToken means no token was presented.
func (g *Gate) Decide(path, rawQuery, rawToken string) Decision {
	if !g.Protected(path) {
		return Decision{Outcome: Allow}
	}

	if rawToken == "" {
		return g.signIn(path, rawQuery)
	}

	claims := token.Decode(rawToken)
	if claims.Role == nil {
		return g.signIn(path, rawQuery)
	}

	if required, ok := g.requiredRole(path); ok && *claims.Role != required {
		return Decision{Outcome: RedirectForbidden, Location: g.config.ForbiddenPath, Claims: claims}
	}
	return Decision{Outcome: Allow, Claims: claims}
}

func (g *Gate) requiredRole(path string) (string, bool) {
	for _, policy := range g.config.Policies {
		if strings.HasPrefix(path, policy.Prefix) {
			return policy.Role, true
		}
	}
	return "", false
}

func (g *Gate) signIn(path, rawQuery string) Decision {
	return Decision{Outcome: RedirectSignIn, Location: g.SignInURL(path, rawQuery)}
}

// SignInURL builds the login location carrying path and query as the return target.
func (g *Gate) SignInURL(path, rawQuery string) string {
	next := path
	if rawQuery != "" {
		next += "?" + rawQuery
	}
	return g.config.LoginPath + "?" + url.Values{g.config.NextParam: {next}}.Encode()
}
