package spotify

import (
	"net/http"
	"time"
)

// transport authenticates catalog requests with the managed bearer token
// and reports throttling hints back to the retry loop of the current
// attempt.
type transport struct {
	base  http.RoundTripper
	creds tokenProvider
	now   func() time.Time
}

func newTransport(base http.RoundTripper, creds tokenProvider) *transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, creds: creds, now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.creds != nil {
		tok, err := t.creds.Token(req.Context())
		if err != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok.Value)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if p := probeFrom(req.Context()); p != nil {
		p.observe(resp, t.now())
	}
	return resp, nil
}
