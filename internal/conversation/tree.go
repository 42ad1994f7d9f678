// Package conversation builds size-bounded views of Reddit discussions for
// inclusion in prompts: a post's reply tree cropped by relevance score, and
// the linear ancestor chain of a single comment.
package conversation

import (
	"context"
	"fmt"

	"regent/internal/reddit"
)

// DefaultMaxTreeSize bounds the number of nodes handed to the prompt.
const DefaultMaxTreeSize = 20

// Tree is a post with its (possibly cropped) reply tree.
type Tree struct {
	ContentID string  `json:"content_id"`
	Subreddit string  `json:"subreddit"`
	Author    string  `json:"author"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	Replies   []*Node `json:"replies"`
}

// Node is a single reply and its children.
type Node struct {
	ContentID string  `json:"content_id"`
	Author    string  `json:"author"`
	Text      string  `json:"text"`
	Score     int     `json:"score"`
	Replies   []*Node `json:"replies"`
}

// Contains reports whether the tree or any reply carries the content id.
func (t *Tree) Contains(contentID string) bool {
	if t.ContentID == contentID {
		return true
	}
	return containsNode(t.Replies, contentID)
}

func containsNode(nodes []*Node, contentID string) bool {
	for _, n := range nodes {
		if n.ContentID == contentID || containsNode(n.Replies, contentID) {
			return true
		}
	}
	return false
}

// Build fetches a post and its replies and crops the reply tree to at most
// maxSize nodes, dropping the lowest-scoring subtrees first. Placeholder
// nodes and replies from deleted authors are skipped during
// materialization.
func Build(ctx context.Context, client reddit.Client, postID string, maxSize int) (*Tree, error) {
	post, comments, err := client.CommentTree(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("fetch comment tree for %s: %w", postID, err)
	}
	replies := fromComments(comments)
	cropped, _ := CropToSize(replies, maxSize)
	return &Tree{
		ContentID: post.Fullname(),
		Subreddit: post.Subreddit,
		Author:    reddit.AuthorName(post.Author),
		Title:     post.Title,
		Text:      post.Body,
		Replies:   cropped,
	}, nil
}

func fromComments(comments []*reddit.Comment) []*Node {
	var nodes []*Node
	for _, c := range comments {
		if c.Author == "" {
			continue
		}
		nodes = append(nodes, &Node{
			ContentID: c.Fullname(),
			Author:    reddit.AuthorName(c.Author),
			Text:      c.Body,
			Score:     c.Score,
			Replies:   fromComments(c.Replies),
		})
	}
	return nodes
}
