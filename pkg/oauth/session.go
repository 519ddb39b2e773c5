package oauth

import (
	"sync"
	"time"

	"github.com/sangkips/posync/pkg/apperror"
	"github.com/sangkips/posync/pkg/utils"
	"golang.org/x/oauth2"
)

// Session holds the bearer credential handed over by the authentication
// layer. It is the oauth2.TokenSource used by the remote sync client.
type Session struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Set stores a new access token, replacing any previous one
func (s *Session) Set(accessToken string) error {
	if _, err := utils.ParseBearerClaims(accessToken); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = accessToken
	s.mu.Unlock()
	return nil
}

// Clear forgets the access token (logout)
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Active reports whether a token is present, expired or not
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Claims returns the claims of the stored token. An expired token still
// identifies the user, which keeps tenant resolution working offline.
func (s *Session) Claims() (*utils.BearerClaims, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	return utils.ParseBearerClaims(token)
}

// Token implements oauth2.TokenSource. It fails with
// apperror.ErrMissingCredential when there is no token or it has expired.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	claims, err := utils.ParseBearerClaims(token)
	if err != nil {
		return nil, apperror.ErrMissingCredential
	}
	if claims.Expired(s.now()) {
		return nil, apperror.ErrMissingCredential
	}

	tok := &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}
	if claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok, nil
}
