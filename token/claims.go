// Package token reads the claims carried by Career Link bearer tokens.
//
// Decoding never verifies the signature. The results drive what the UI shows
// and where the route gate redirects; the REST API verifies every token on
// every call and remains the only authorization boundary.
package token

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/careerlink/session-gate/internal/utils"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claim names fixed by the identity service.
const (
	ClaimRole      = "role"
	ClaimSubjectID = "sub"
	ClaimExpiry    = "exp"
)

// DefaultExpiryThreshold is how close to expiry a token counts as expiring soon.
const DefaultExpiryThreshold = 120 * time.Second

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the advisory view of a token. Every field is nil when the token
// could not be decoded.
type Claims struct {
	Role      *string `json:"role,omitempty"`
	SubjectID *string `json:"subjectId,omitempty"`
	ExpiresAt *int64  `json:"exp,omitempty"` // epoch seconds
}

// Valid reports whether anything was decoded at all.
func (c Claims) Valid() bool {
	return c.Role != nil || c.SubjectID != nil || c.ExpiresAt != nil
}

// Decode extracts the role, subject id and expiry from rawToken. Malformed
// input yields an empty Claims, never an error.
func Decode(rawToken string) Claims {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Claims{}
	}

	parser := jwtlib.NewParser(jwtlib.WithJSONNumber())
	parsed, _, err := parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}
	}
	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}
	}

	return Claims{
		Role:      stringClaim(mapClaims[ClaimRole]),
		SubjectID: stringClaim(mapClaims[ClaimSubjectID]),
		ExpiresAt: intClaim(mapClaims[ClaimExpiry]),
	}
}

// IsExpiringSoon reports whether rawToken expires within threshold of now.
// Tokens that cannot be decoded, or carry no expiry, are always expiring.
func IsExpiringSoon(rawToken string, threshold time.Duration) bool {
	return ExpiringSoon(Decode(rawToken), NowTimeFunc(), threshold)
}

// ExpiringSoon is the clock-explicit form of IsExpiringSoon.
func ExpiringSoon(c Claims, now time.Time, threshold time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	remaining := *c.ExpiresAt*1000 - now.UnixMilli()
	return remaining <= threshold.Milliseconds()
}

// ExpiryTime converts the exp claim to a time.Time.
func (c Claims) ExpiryTime() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.ExpiresAt, 0), true
}

func stringClaim(v any) *string {
	switch value := v.(type) {
	case string:
		return utils.PtrIf(value)
	case json.Number:
		return utils.PtrIf(value.String())
	case float64:
		return utils.Ptr(strconv.FormatFloat(value, 'f', -1, 64))
	default:
		return nil
	}
}

func intClaim(v any) *int64 {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return &i
		}
		if f, err := value.Float64(); err == nil {
			return utils.Ptr(int64(f))
		}
		return nil
	case float64:
		return utils.Ptr(int64(value))
	default:
		return nil
	}
}
