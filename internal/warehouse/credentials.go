package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/lcdash/internal/clients/connect"
)

// TokenSource yields the warehouse access token for a request.
type TokenSource interface {
	Token(ctx context.Context, session Session) (string, error)
}

// StaticToken is a fixed personal access token.
type StaticToken struct {
	Backend string
	Value   string
	EnvVar  string
}

func (s StaticToken) Token(ctx context.Context, session Session) (string, error) {
	if s.Value == "" {
		return "", configError(s.Backend, "%s is not set", s.EnvVar)
	}
	return s.Value, nil
}

// Exchanger trades a session token for an OAuth access token.
type Exchanger interface {
	ExchangeSessionToken(ctx context.Context, sessionToken string) (string, error)
}

// SessionExchange obtains a per-viewer token from the hosting platform.
type SessionExchange struct {
	Backend   string
	Exchanger Exchanger
}

func (s SessionExchange) Token(ctx context.Context, session Session) (string, error) {
	token, err := s.Exchanger.ExchangeSessionToken(ctx, session.Token)
	if errors.Is(err, connect.ErrMissingSessionToken) {
		return "", configError(s.Backend, "request carries no user session token")
	}
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}
