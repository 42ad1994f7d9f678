package conversation

import (
	"context"
	"fmt"
	"strings"

	"regent/internal/reddit"
)

// ChainItem is one entry of a linear conversation, root post first.
type ChainItem struct {
	ContentID string `json:"content_id"`
	Author    string `json:"author"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
}

// Parent chains are bounded so a malformed parent_id loop cannot spin
// forever.
const maxChainDepth = 100

// Chain walks a comment's ancestors up to the root post and returns the
// conversation in reading order: the post, then each comment down to and
// including the one identified by commentID.
func Chain(ctx context.Context, client reddit.Client, commentID string) ([]ChainItem, error) {
	var comments []*reddit.Comment
	id := commentID
	for depth := 0; ; depth++ {
		if depth > maxChainDepth {
			return nil, fmt.Errorf("conversation chain for %s exceeds %d levels", commentID, maxChainDepth)
		}
		c, err := client.Comment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch comment %s: %w", id, err)
		}
		comments = append([]*reddit.Comment{c}, comments...)
		switch {
		case strings.HasPrefix(c.ParentID, reddit.CommentPrefix):
			id = strings.TrimPrefix(c.ParentID, reddit.CommentPrefix)
		case strings.HasPrefix(c.ParentID, reddit.PostPrefix):
			post, err := client.Post(ctx, strings.TrimPrefix(c.ParentID, reddit.PostPrefix))
			if err != nil {
				return nil, fmt.Errorf("fetch root post %s: %w", c.ParentID, err)
			}
			items := []ChainItem{{
				ContentID: post.Fullname(),
				Author:    reddit.AuthorName(post.Author),
				Title:     post.Title,
				Text:      post.Body,
			}}
			for _, cm := range comments {
				items = append(items, ChainItem{
					ContentID: cm.Fullname(),
					Author:    reddit.AuthorName(cm.Author),
					Text:      cm.Body,
				})
			}
			return items, nil
		default:
			return nil, fmt.Errorf("comment %s: invalid parent id %q", c.ID, c.ParentID)
		}
	}
}
