package wallet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type Provider string

const (
	ProviderGithub Provider = "github"
	ProviderGoogle Provider = "google"
)

// Issuer is the claim issuer the proof scheme binds the address to
func (p Provider) Issuer() string {
	switch p {
	case ProviderGithub:
		return "https://github.com"
	case ProviderGoogle:
		return "https://accounts.google.com"
	default:
		return ""
	}
}

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGithub, ProviderGoogle:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Identity is the canonical, provider independent identity record
type Identity struct {
	Subject  string   `json:"subject"`
	Email    string   `json:"email"`
	Login    string   `json:"login,omitempty"`
	Name     string   `json:"name,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Provider Provider `json:"provider"`
}

// SameAccount reports whether both identities resolve to one account
func (i Identity) SameAccount(o Identity) bool {
	return i.Provider == o.Provider && i.Subject == o.Subject
}

// Claim is a provider claim already verified by the OAuth exchange
type Claim map[string]any

// Normalize maps a provider specific claim into an Identity
func Normalize(provider string, claim Claim) (Identity, error) {
	p, err := ParseProvider(provider)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		Provider: p,
		Email:    claim.str("email"),
		Name:     claim.str("name"),
	}

	switch p {
	case ProviderGithub:
		id.Subject = claim.str("sub")
		if id.Subject == "" {
			id.Subject = claim.str("id")
		}
		id.Login = claim.str("login")
		id.Picture = claim.str("avatar_url")
	case ProviderGoogle:
		id.Subject = claim.str("sub")
		if at := strings.IndexByte(id.Email, '@'); at > 0 {
			id.Login = id.Email[:at]
		}
		id.Picture = claim.str("picture")
	}

	if id.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject for %s", ErrInvalidClaim, p)
	}

	return id, nil
}

// ClaimsFromIDToken decodes the payload of an ID token. The token signature
// is the OAuth exchange's concern and is not checked here.
func ClaimsFromIDToken(idToken string) (Claim, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
	return Claim(claims), nil
}

// str reads a claim field as a string; numeric ids are rendered without exponent
func (c Claim) str(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}
