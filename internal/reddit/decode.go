package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// thing is the kind/data envelope every API object arrives in.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
		After    string  `json:"after"`
	} `json:"data"`
}

type postData struct {
	ID         string  `json:"id"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	URL        string  `json:"url"`
	IsSelf     bool    `json:"is_self"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	ParentID   string          `json:"parent_id"`
	Context    string          `json:"context"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

func decodePost(raw json.RawMessage) (*Post, error) {
	var d postData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return &Post{
		ID:        d.ID,
		Subreddit: d.Subreddit,
		Author:    normalizeAuthor(d.Author),
		Title:     d.Title,
		Body:      d.Selftext,
		URL:       d.URL,
		IsSelf:    d.IsSelf,
		Score:     d.Score,
		Created:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}, nil
}

func decodeComment(raw json.RawMessage) (*Comment, error) {
	var d commentData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}
	cm := &Comment{
		ID:       d.ID,
		Author:   normalizeAuthor(d.Author),
		Body:     d.Body,
		ParentID: d.ParentID,
		Context:  d.Context,
		Score:    d.Score,
		Created:  time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}
	// Replies is either an empty string or a nested listing.
	if len(d.Replies) > 0 && !bytes.Equal(bytes.TrimSpace(d.Replies), []byte(`""`)) {
		var l listing
		if err := json.Unmarshal(d.Replies, &l); err != nil {
			return nil, fmt.Errorf("decode comment %s replies: %w", d.ID, err)
		}
		children, err := decodeCommentForest(l.Data.Children)
		if err != nil {
			return nil, err
		}
		cm.Replies = children
	}
	return cm, nil
}

// decodeCommentForest decodes a listing's children into comments, dropping
// "more" placeholders.
func decodeCommentForest(children []thing) ([]*Comment, error) {
	var comments []*Comment
	for _, th := range children {
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

// normalizeAuthor maps the API's deleted-account sentinel to an empty
// author so callers have a single representation to check.
func normalizeAuthor(author string) string {
	if author == "[deleted]" {
		return ""
	}
	return author
}
