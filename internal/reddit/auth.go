package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthScopes are the OAuth scopes the agent needs.
var AuthScopes = []string{"identity", "submit", "read", "privatemessages"}

const authorizeURL = "https://www.reddit.com/api/v1/authorize"

// AuthorizeURL builds the URL a user opens to grant the app a permanent
// refresh token.
func (c Credentials) AuthorizeURL(redirectURI, state string, scopes []string) string {
	q := url.Values{
		"client_id":     {c.ClientID},
		"response_type": {"code"},
		"state":         {state},
		"redirect_uri":  {redirectURI},
		"duration":      {"permanent"},
		"scope":         {strings.Join(scopes, " ")},
	}
	return authorizeURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for a refresh token.
func (c *HTTPClient) ExchangeCode(ctx context.Context, redirectURI, code string) (string, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build code exchange request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("code exchange failed: %s", resp.Status)
	}
	var tok struct {
		RefreshToken string `json:"refresh_token"`
		Error        string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode code exchange response: %w", err)
	}
	if tok.Error != "" {
		return "", fmt.Errorf("code exchange rejected: %s", tok.Error)
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("code exchange response missing refresh token")
	}
	return tok.RefreshToken, nil
}

// CanonicalSubreddit lowercases a subreddit name and strips an "r/" prefix.
func CanonicalSubreddit(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(s, "r/")
}
