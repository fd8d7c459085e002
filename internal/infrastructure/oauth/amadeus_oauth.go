package oauth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dealwatch-service/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AmadeusOAuth handles client-credentials authentication with Amadeus for Developers
type AmadeusOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewAmadeusOAuth creates a new Amadeus OAuth handler for the API at baseURL
func NewAmadeusOAuth(baseURL, clientID, clientSecret string, logger logger.Logger) *AmadeusOAuth {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimRight(baseURL, "/") + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &AmadeusOAuth{
		config: config,
		logger: logger,
	}
}

// GetTokenSource returns a caching token source that refreshes on expiry
func (o *AmadeusOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return &loggingTokenSource{source: o.config.TokenSource(ctx), logger: o.logger}
}

// loggingTokenSource reports failed token requests
type loggingTokenSource struct {
	source oauth2.TokenSource
	logger logger.Logger
}

func (s *loggingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		s.logger.Error("Failed to obtain Amadeus access token", "error", err)
		return nil, err
	}
	return token, nil
}

// HTTPClient returns a client that authorizes every request with a bearer token.
// base, when non-nil, carries the transport and timeout.
func (o *AmadeusOAuth) HTTPClient(ctx context.Context, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, o.GetTokenSource(ctx))
	client.Timeout = base.Timeout
	o.logger.Debug("Amadeus OAuth client configured", "tokenURL", o.config.TokenURL)
	return client
}
