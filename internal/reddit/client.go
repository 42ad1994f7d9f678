package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is the platform surface the agent depends on. The HTTP
// implementation below is the real thing; tests substitute fakes.
type Client interface {
	// Me returns the authenticated account.
	Me(ctx context.Context) (*Account, error)
	// Post fetches a single post by bare id.
	Post(ctx context.Context, id string) (*Post, error)
	// Comment fetches a single comment by bare id, without replies.
	Comment(ctx context.Context, id string) (*Comment, error)
	// CommentTree fetches a post and its full nested reply tree.
	CommentTree(ctx context.Context, postID string) (*Post, []*Comment, error)
	// UnreadComments lists unread comment replies from the inbox,
	// newest first.
	UnreadComments(ctx context.Context) ([]*Comment, error)
	// MarkRead marks an inbox item read by fullname.
	MarkRead(ctx context.Context, fullname string) error
	// Reply posts a comment under the post or comment named by fullname.
	Reply(ctx context.Context, fullname, text string) error
	// Submit creates a self post.
	Submit(ctx context.Context, subreddit, title, body string) error
	// LatestPost returns the user's most recent submission, or nil if
	// the account has never posted.
	LatestPost(ctx context.Context, username string) (*Post, error)
	// NewPosts lists the newest posts across the given subreddits.
	NewPosts(ctx context.Context, subreddits []string, limit int) ([]*Post, error)
}

// Credentials identifies the Reddit app and account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserAgent    string
}

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// Refresh the access token this long before it actually expires.
	tokenExpiryMargin = time.Minute
)

// HTTPClient implements Client against the Reddit API.
type HTTPClient struct {
	// BaseURL and TokenURL are overridable for tests.
	BaseURL  string
	TokenURL string

	creds Credentials
	http  *http.Client
	log   *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds an HTTP client for the given app credentials.
func NewClient(creds Credentials, log *zap.Logger) *HTTPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		BaseURL:  defaultBaseURL,
		TokenURL: defaultTokenURL,
		creds:    creds,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

func (c *HTTPClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.creds.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("access token request failed: %s", resp.Status)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.Error != "" {
		return "", fmt.Errorf("access token request rejected: %s", tok.Error)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("access token response missing token")
	}
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.log.Debug("refreshed reddit access token", zap.Time("expiry", c.tokenExpiry))
	return c.accessToken, nil
}

// api performs an authenticated API call and decodes the JSON response
// into out (skipped when out is nil).
func (c *HTTPClient) api(ctx context.Context, method, path string, form url.Values, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	u := c.BaseURL + path
	var body *strings.Reader
	if method == http.MethodPost {
		if form == nil {
			form = url.Values{}
		}
		body = strings.NewReader(form.Encode())
	} else {
		if form != nil {
			u += "?" + form.Encode()
		}
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.creds.UserAgent)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) Me(ctx context.Context) (*Account, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.api(ctx, http.MethodGet, "/api/v1/me", rawJSON(nil), &me); err != nil {
		return nil, err
	}
	if me.Name == "" {
		return nil, fmt.Errorf("no user logged in")
	}
	return &Account{Name: me.Name}, nil
}

func (c *HTTPClient) Post(ctx context.Context, id string) (*Post, error) {
	things, err := c.info(ctx, PostPrefix+id)
	if err != nil {
		return nil, err
	}
	for _, th := range things {
		if th.Kind == "t3" {
			return decodePost(th.Data)
		}
	}
	return nil, fmt.Errorf("post %s not found", id)
}

func (c *HTTPClient) Comment(ctx context.Context, id string) (*Comment, error) {
	things, err := c.info(ctx, CommentPrefix+id)
	if err != nil {
		return nil, err
	}
	for _, th := range things {
		if th.Kind == "t1" {
			return decodeComment(th.Data)
		}
	}
	return nil, fmt.Errorf("comment %s not found", id)
}

func (c *HTTPClient) CommentTree(ctx context.Context, postID string) (*Post, []*Comment, error) {
	var listings []listing
	form := rawJSON(url.Values{"limit": {"500"}, "depth": {"50"}})
	if err := c.api(ctx, http.MethodGet, "/comments/"+postID, form, &listings); err != nil {
		return nil, nil, err
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, nil, fmt.Errorf("post %s: malformed comments response", postID)
	}
	post, err := decodePost(listings[0].Data.Children[0].Data)
	if err != nil {
		return nil, nil, err
	}
	comments, err := decodeCommentForest(listings[1].Data.Children)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

func (c *HTTPClient) UnreadComments(ctx context.Context) ([]*Comment, error) {
	var l listing
	if err := c.api(ctx, http.MethodGet, "/message/unread", rawJSON(url.Values{"limit": {"100"}}), &l); err != nil {
		return nil, err
	}
	var comments []*Comment
	for _, th := range l.Data.Children {
		if th.Kind != "t1" {
			continue
		}
		cm, err := decodeComment(th.Data)
		if err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

func (c *HTTPClient) MarkRead(ctx context.Context, fullname string) error {
	return c.api(ctx, http.MethodPost, "/api/read_message", url.Values{"id": {fullname}}, nil)
}

func (c *HTTPClient) Reply(ctx context.Context, fullname, text string) error {
	form := url.Values{
		"api_type": {"json"},
		"thing_id": {fullname},
		"text":     {text},
	}
	var resp apiResponse
	if err := c.api(ctx, http.MethodPost, "/api/comment", form, &resp); err != nil {
		return err
	}
	return resp.err()
}

func (c *HTTPClient) Submit(ctx context.Context, subreddit, title, body string) error {
	form := url.Values{
		"api_type": {"json"},
		"sr":       {subreddit},
		"kind":     {"self"},
		"title":    {title},
		"text":     {body},
	}
	var resp apiResponse
	if err := c.api(ctx, http.MethodPost, "/api/submit", form, &resp); err != nil {
		return err
	}
	return resp.err()
}

func (c *HTTPClient) LatestPost(ctx context.Context, username string) (*Post, error) {
	var l listing
	form := rawJSON(url.Values{"sort": {"new"}, "limit": {"1"}})
	if err := c.api(ctx, http.MethodGet, "/user/"+url.PathEscape(username)+"/submitted", form, &l); err != nil {
		return nil, err
	}
	for _, th := range l.Data.Children {
		if th.Kind == "t3" {
			return decodePost(th.Data)
		}
	}
	return nil, nil
}

func (c *HTTPClient) NewPosts(ctx context.Context, subreddits []string, limit int) ([]*Post, error) {
	var l listing
	form := rawJSON(url.Values{"limit": {fmt.Sprint(limit)}})
	path := "/r/" + url.PathEscape(strings.Join(subreddits, "+")) + "/new"
	if err := c.api(ctx, http.MethodGet, path, form, &l); err != nil {
		return nil, err
	}
	var posts []*Post
	for _, th := range l.Data.Children {
		if th.Kind != "t3" {
			continue
		}
		p, err := decodePost(th.Data)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (c *HTTPClient) info(ctx context.Context, fullname string) ([]thing, error) {
	var l listing
	if err := c.api(ctx, http.MethodGet, "/api/info", rawJSON(url.Values{"id": {fullname}}), &l); err != nil {
		return nil, err
	}
	return l.Data.Children, nil
}

// rawJSON adds raw_json=1 so the API does not HTML-escape bodies.
func rawJSON(form url.Values) url.Values {
	if form == nil {
		form = url.Values{}
	}
	form.Set("raw_json", "1")
	return form
}

// apiResponse is the api_type=json envelope used by write endpoints.
type apiResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
	} `json:"json"`
}

func (r *apiResponse) err() error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(r.JSON.Errors))
	for _, e := range r.JSON.Errors {
		parts = append(parts, strings.Join(e, " "))
	}
	return fmt.Errorf("api error: %s", strings.Join(parts, "; "))
}
