// Package connect exchanges Posit Connect user session tokens for warehouse
// OAuth access tokens.
package connect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const credentialsPath = "/__api__/v1/oauth/integrations/credentials"

// Token exchange grant parameters.
const (
	grantTypeTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenType       = "urn:posit:connect:user-session-token"
)

// ErrMissingSessionToken is returned when a request carries no session token.
var ErrMissingSessionToken = errors.New("missing user session token")

// Credentials is the token exchange response.
type Credentials struct {
	AccessToken     string `json:"access_token"`
	IssuedTokenType string `json:"issued_token_type"`
	TokenType       string `json:"token_type"`
}

// Client talks to a Posit Connect server.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a Connect client for server using apiKey.
func NewClient(server, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(server, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "connect").Logger(),
	}
}

// ExchangeSessionToken trades a viewer's session token for an OAuth access
// token of the content's warehouse integration.
func (c *Client) ExchangeSessionToken(ctx context.Context, sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", ErrMissingSessionToken
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeTokenExchange)
	form.Set("subject_token_type", subjectTokenType)
	form.Set("subject_token", sessionToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+credentialsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build credentials request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("credentials request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Token exchange rejected")
		return "", fmt.Errorf("credentials request returned status %d", resp.StatusCode)
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials response: %w", err)
	}
	if creds.AccessToken == "" {
		return "", fmt.Errorf("credentials response carried no access token")
	}

	c.log.Debug().Str("token_type", creds.TokenType).Msg("Exchanged session token")
	return creds.AccessToken, nil
}
