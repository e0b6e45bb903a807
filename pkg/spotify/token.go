package spotify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// TokenSource performs one client-credentials exchange. The
// clientcredentials.Config from golang.org/x/oauth2 satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// AccessToken is a service-level bearer token and the instant it stops
// being valid.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at now.
func (t AccessToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// defaultTokenLifetime applies when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// CredentialManager owns the process-wide access token. Refreshes are
// serialized so at most one exchange is in flight; callers arriving while a
// refresh runs wait and then receive the new token.
type CredentialManager struct {
	mu      sync.Mutex
	token   AccessToken
	source  TokenSource
	retrier *Retrier
	client  *http.Client
	now     func() time.Time
	log     logrus.FieldLogger
}

// NewCredentialManager returns a manager exchanging credentials through
// source. client, when non-nil, is the HTTP client used for the exchange.
func NewCredentialManager(source TokenSource, retrier *Retrier, client *http.Client, log logrus.FieldLogger) *CredentialManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryPolicy(), log)
	}
	return &CredentialManager{
		source:  source,
		retrier: retrier,
		client:  client,
		now:     time.Now,
		log:     log.WithField("component", "credentials"),
	}
}

// Token returns the held token while it is valid and otherwise performs a
// new exchange under the retry policy. A failed exchange is an *AuthError.
func (m *CredentialManager) Token(ctx context.Context) (AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token.Valid(m.now()) {
		return m.token, nil
	}

	var tok *oauth2.Token
	err := m.retrier.Do(ctx, "token", func(ctx context.Context) error {
		if m.client != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
		}
		t, err := m.source.Token(ctx)
		if err != nil {
			return err
		}
		tok = t
		return nil
	})
	if err != nil {
		tokenRefreshes.WithLabelValues("error").Inc()
		m.log.WithError(err).Error("access token exchange failed")
		return AccessToken{}, &AuthError{Err: err}
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = m.now().Add(defaultTokenLifetime)
	}
	m.token = AccessToken{Value: tok.AccessToken, ExpiresAt: expiresAt}
	tokenRefreshes.WithLabelValues("ok").Inc()
	m.log.WithField("expires_at", expiresAt).Debug("access token refreshed")
	return m.token, nil
}
