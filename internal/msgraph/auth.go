// Package msgraph imports Outlook calendar events through Microsoft Graph.
package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// oauth2Config returns the device-code oauth2.Config for Microsoft Graph.
func oauth2Config(tenantID, clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(tenantID, "devicecode"),
			TokenURL:      msEndpoint(tenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// Authenticator obtains Graph tokens with the OAuth2 device code flow and
// caches them in a file.
type Authenticator struct {
	config    *oauth2.Config
	tokenPath string
	// prompt receives the sign-in instructions of the device code flow.
	prompt io.Writer
	logger zerolog.Logger
}

// NewAuthenticator creates an Authenticator storing its token at tokenPath.
func NewAuthenticator(tenantID, clientID, tokenPath string, prompt io.Writer, logger zerolog.Logger) *Authenticator {
	if prompt == nil {
		prompt = io.Discard
	}
	return &Authenticator{
		config:    oauth2Config(tenantID, clientID),
		tokenPath: tokenPath,
		prompt:    prompt,
		logger:    logger.With().Str("component", "msgraph").Logger(),
	}
}

// TokenPath returns the token cache file.
func (a *Authenticator) TokenPath() string {
	return a.tokenPath
}

// loadToken returns the cached token, or nil when there is none.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", a.tokenPath, err)
	}
	return &tok, nil
}

// saveToken writes tok atomically with owner-only permissions.
func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := a.tokenPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, a.tokenPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Logout removes the cached token. A missing file is not an error.
func (a *Authenticator) Logout() error {
	if err := os.Remove(a.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Token returns a valid token: the cached one, a refreshed one, or a new one
// from the device code flow.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.loadToken()
	if err != nil {
		a.logger.Warn().Err(err).Msg("ignoring cached token")
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := a.config.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := a.saveToken(refreshed); err != nil {
				a.logger.Warn().Err(err).Msg("could not save refreshed token")
			}
			return refreshed, nil
		}
		a.logger.Warn().Err(err).Msg("token refresh failed, re-authenticating")
	}

	resp, err := a.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(a.prompt)
	fmt.Fprintln(a.prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(a.prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(a.prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(a.prompt)

	newTok, err := a.config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := a.saveToken(newTok); err != nil {
		a.logger.Warn().Err(err).Msg("could not save token")
	}
	return newTok, nil
}

// HTTPClient returns an HTTP client that authenticates Graph requests and
// persists every token it refreshes.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	ts := &savingTokenSource{ts: a.config.TokenSource(ctx, tok), auth: a}
	return oauth2.NewClient(ctx, ts), nil
}

// savingTokenSource wraps a TokenSource and persists the tokens it returns.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	auth *Authenticator
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.auth.saveToken(tok); err != nil {
			s.auth.logger.Debug().Err(err).Msg("could not persist token")
		}
	}
	return tok, nil
}
