package token

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the manager to the oauth2.TokenSource contract so the
// managed session can back oauth2-aware HTTP stacks (e.g. oauth2.NewClient).
// The returned source serves the stored token while it is comfortably inside
// its lifetime and refreshes through the manager otherwise, so the
// single-flight and tombstone rules still apply.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	m := ts.manager

	session := m.store.Read()
	if session.AccessToken != "" {
		if expiresAt, err := m.expiry.ExpiresAt(session.AccessToken); err == nil {
			if m.nowFunc().Add(refreshMargin).Before(expiresAt) {
				return &oauth2.Token{
					AccessToken: session.AccessToken,
					TokenType:   "Bearer",
					Expiry:      expiresAt,
				}, nil
			}
		}
	}

	accessToken, err := m.RefreshAccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if expiresAt, err := m.expiry.ExpiresAt(accessToken); err == nil {
		tok.Expiry = expiresAt
	}
	return tok, nil
}
