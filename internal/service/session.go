package service

import (
	"errors"

	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

type Session = tokens.Session

func bearer(header string) (string, bool) {
	return tokens.BearerToken(header)
}

func (s *AuthService) verifySession(token string) (*Session, error) {
	sess, err := s.Tokens.VerifySession(token)
	if err != nil {
		if errors.Is(err, tokens.ErrMissingSubject) {
			return nil, fail(ErrUnauthorized, "Invalid token payload")
		}
		return nil, &Error{Kind: ErrUnauthorized, Message: "Invalid token", Err: err}
	}
	return sess, nil
}

// Authenticate resolves an Authorization header value to a session.
func (s *AuthService) Authenticate(authorization string) (*Session, error) {
	return s.sessionFromHeader(authorization)
}
