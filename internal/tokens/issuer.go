// Package tokens issues and verifies signed bearer tokens.
//
// Two classes share one envelope. Session tokens carry identity and roles
// and never a purpose claim. Scoped tokens carry a purpose claim (for
// example reset_password) and are refused wherever a session is expected.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongPurpose     = errors.New("token purpose mismatch")
	ErrMissingSubject   = errors.New("token has no subject")
)

const (
	ClaimPurpose  = "purpose"
	ClaimUID      = "uid"
	ClaimUsername = "username"
	ClaimRoles    = "roles"

	PurposeResetPassword = "reset_password"

	DefaultSessionTTL = 900 * time.Second
)

type Issuer struct {
	keys       Keys
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

type Option func(*Issuer)

func WithIssuer(iss string) Option { return func(i *Issuer) { i.issuer = iss } }

func WithSessionTTL(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.sessionTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(i *Issuer) { i.now = now } }

func NewIssuer(keys Keys, opts ...Option) *Issuer {
	i := &Issuer{keys: keys, sessionTTL: DefaultSessionTTL, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

func (i *Issuer) SessionTTL() time.Duration { return i.sessionTTL }

// Session is the verified content of a session token.
type Session struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
	ID        string
}

func (s *Session) HasRole(role string) bool { return roles.Has(s.Roles, role) }

func (i *Issuer) IssueSession(subject string, roleSet []string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	set := roles.Clean(roleSet)
	if set == nil {
		set = []string{roles.User}
	}
	now := i.now()
	exp := now.Add(i.sessionTTL)
	claims := jwt.MapClaims{
		"sub":         subject,
		ClaimUsername: subject,
		ClaimRoles:    set,
		"iat":         now.Unix(),
		"exp":         exp.Unix(),
		"jti":         uuid.NewString(),
	}
	if i.issuer != "" {
		claims["iss"] = i.issuer
	}
	tok, err := i.sign(claims)
	return tok, exp, err
}

// IssueScoped signs extra alongside sub, iat and exp = now+ttl.
func (i *Issuer) IssueScoped(subject string, extra map[string]any, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()
	if i.issuer != "" {
		claims["iss"] = i.issuer
	}
	tok, err := i.sign(claims)
	return tok, exp, err
}

func (i *Issuer) IssueReset(username string, ttl time.Duration) (string, time.Time, error) {
	return i.IssueScoped(username, map[string]any{
		ClaimPurpose: PurposeResetPassword,
		ClaimUID:     username,
	}, ttl)
}

func (i *Issuer) sign(claims jwt.MapClaims) (string, error) {
	tok, err := jwt.NewWithClaims(i.keys.method, claims).SignedString(i.keys.sign)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return tok, nil
}

// Decode verifies signature, format and expiry.
func (i *Issuer) Decode(token string) (jwt.MapClaims, error) {
	return i.parse(token, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
}

// DecodeAllowExpired verifies signature and format only.
func (i *Issuer) DecodeAllowExpired(token string) (jwt.MapClaims, error) {
	return i.parse(token, jwt.WithoutClaimsValidation())
}

func (i *Issuer) parse(token string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	opts = append(opts, jwt.WithValidMethods([]string{i.keys.method.Alg()}))

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.keys.verify, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// VerifySession decodes a session token. Tokens carrying a purpose claim are refused.
func (i *Issuer) VerifySession(token string) (*Session, error) {
	claims, err := i.Decode(token)
	if err != nil {
		return nil, err
	}
	if _, scoped := claims[ClaimPurpose]; scoped {
		return nil, ErrWrongPurpose
	}

	subject := StringClaim(claims, ClaimUsername)
	if subject == "" {
		subject, _ = claims.GetSubject()
	}
	if subject == "" {
		return nil, ErrMissingSubject
	}

	s := &Session{
		Subject: subject,
		Roles:   rolesClaim(claims),
		ID:      StringClaim(claims, "jti"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

func StringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func rolesClaim(claims jwt.MapClaims) []string {
	raw, _ := claims[ClaimRoles].([]any)
	list := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			list = append(list, s)
		}
	}
	if out := roles.Clean(list); out != nil {
		return out
	}
	return []string{roles.User}
}

// VerifyReset checks a password-reset token and returns the username it names.
// Signature and purpose are checked before expiry, so a genuine but stale
// token reports ErrExpired rather than a decode failure.
func (i *Issuer) VerifyReset(token string) (string, error) {
	claims, err := i.DecodeAllowExpired(token)
	if err != nil {
		return "", err
	}
	if StringClaim(claims, ClaimPurpose) != PurposeResetPassword {
		return "", ErrWrongPurpose
	}

	uid := StringClaim(claims, ClaimUID)
	if uid == "" {
		return "", ErrExpired
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if exp != nil && exp.Unix() > 0 && exp.Time.Before(i.now()) {
		return "", ErrExpired
	}
	return uid, nil
}
