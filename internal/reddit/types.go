// Package reddit is a minimal Reddit API client covering what the agent
// needs: the authenticated identity, new-post listings and streaming,
// comment trees, the unread inbox, and the write operations (reply, mark
// read, submit). It speaks the OAuth2 refresh-token flow and decodes the
// API's kind/data "thing" envelopes.
package reddit

import "time"

// Fullname prefixes. A fullname is a kind prefix plus the bare id,
// e.g. "t3_abc123" for a post.
const (
	CommentPrefix = "t1_"
	PostPrefix    = "t3_"
)

// Account is the authenticated user.
type Account struct {
	Name string
}

// Post is a subreddit submission.
type Post struct {
	ID        string
	Subreddit string
	Author    string
	Title     string
	Body      string
	URL       string
	IsSelf    bool
	Score     int
	Created   time.Time
}

// Fullname returns the post's prefixed id.
func (p *Post) Fullname() string { return PostPrefix + p.ID }

// Comment is a comment, optionally with its reply subtree attached
// (only populated by CommentTree).
type Comment struct {
	ID       string
	Author   string
	Body     string
	ParentID string
	Context  string
	Score    int
	Created  time.Time
	Replies  []*Comment
}

// Fullname returns the comment's prefixed id.
func (c *Comment) Fullname() string { return CommentPrefix + c.ID }

// AuthorName renders an author field for display. Deleted and suspended
// accounts decode to an empty author.
func AuthorName(author string) string {
	if author == "" {
		return "[unknown/deleted]"
	}
	return author
}
