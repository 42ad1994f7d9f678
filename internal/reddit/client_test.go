package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *int) {
	t.Helper()
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600}`)
	})
	mux.Handle("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-me",
		UserAgent:    "regent-test",
	}, nil)
	c.BaseURL = srv.URL
	c.TokenURL = srv.URL + "/api/v1/access_token"
	return c, &tokenCalls
}

func TestHTTPClient_TokenRefreshedOnceAndReused(t *testing.T) {
	c, tokenCalls := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "regent-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"name":"regent"}`)
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		me, err := c.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, "regent", me.Name)
	}
	assert.Equal(t, 1, *tokenCalls)
}

func TestHTTPClient_CommentTree(t *testing.T) {
	// A post with one top-level comment that has a nested reply, a
	// deleted-author comment, and a "more" placeholder.
	body := `[
	  {"kind":"Listing","data":{"children":[
	    {"kind":"t3","data":{"id":"p1","subreddit":"golang","author":"alice","title":"T","selftext":"B","is_self":true,"score":10,"created_utc":1714561200}}
	  ]}},
	  {"kind":"Listing","data":{"children":[
	    {"kind":"t1","data":{"id":"c1","author":"bob","body":"top","parent_id":"t3_p1","score":5,"created_utc":1714561300,
	      "replies":{"kind":"Listing","data":{"children":[
	        {"kind":"t1","data":{"id":"c2","author":"carol","body":"nested","parent_id":"t1_c1","score":2,"created_utc":1714561400,"replies":""}}
	      ]}}}},
	    {"kind":"t1","data":{"id":"c3","author":"[deleted]","body":"[deleted]","parent_id":"t3_p1","score":1,"created_utc":1714561500,"replies":""}},
	    {"kind":"more","data":{"children":["c4","c5"]}}
	  ]}}
	]`
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments/p1", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("raw_json"))
		fmt.Fprint(w, body)
	}))

	post, comments, err := c.CommentTree(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "golang", post.Subreddit)
	assert.Equal(t, "alice", post.Author)
	assert.True(t, post.IsSelf)

	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "c2", comments[0].Replies[0].ID)
	assert.Empty(t, comments[0].Replies[0].Replies)

	// Deleted author is normalized to empty.
	assert.Equal(t, "", comments[1].Author)
	assert.Equal(t, "[unknown/deleted]", AuthorName(comments[1].Author))
}

func TestHTTPClient_NewPosts(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/golang+programming/new", r.URL.Path)
		fmt.Fprint(w, `{"kind":"Listing","data":{"children":[
		  {"kind":"t3","data":{"id":"b","author":"x","title":"newer","is_self":true,"created_utc":200}},
		  {"kind":"t3","data":{"id":"a","author":"y","title":"older","is_self":false,"created_utc":100}}
		]}}`)
	}))

	posts, err := c.NewPosts(context.Background(), []string{"golang", "programming"}, 100)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].ID)
	assert.False(t, posts[1].IsSelf)
}

func TestHTTPClient_ReplyAPIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "t1_c1", r.PostForm.Get("thing_id"))
		fmt.Fprint(w, `{"json":{"errors":[["RATELIMIT","you are doing that too much","ratelimit"]]}}`)
	}))

	err := c.Reply(context.Background(), "t1_c1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATELIMIT")
}

func TestHTTPClient_LatestPostNoneYet(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kind":"Listing","data":{"children":[]}}`)
	}))

	post, err := c.LatestPost(context.Background(), "regent")
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestCanonicalSubreddit(t *testing.T) {
	tests := []struct{ in, want string }{
		{"golang", "golang"},
		{"r/golang", "golang"},
		{" R/GoLang ", "golang"},
		{"  Programming", "programming"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalSubreddit(tt.in), tt.in)
	}
}

func TestCredentials_AuthorizeURL(t *testing.T) {
	creds := Credentials{ClientID: "cid"}
	u := creds.AuthorizeURL("http://localhost:8080", "nonce", AuthScopes)
	assert.Contains(t, u, "client_id=cid")
	assert.Contains(t, u, "state=nonce")
	assert.Contains(t, u, "duration=permanent")
	assert.Contains(t, u, "identity+submit+read+privatemessages")
}
