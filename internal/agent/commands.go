package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"regent/internal/conversation"
	"regent/internal/reddit"
	"regent/internal/state"
)

// Specs enumerates the complete command set in the order it is presented
// to the provider.
func Specs() []Spec {
	return []Spec{
		{
			Name:        "show_username",
			Description: "Show the agent's own Reddit username.",
			Decode:      func([]string) (Command, error) { return ShowUsername{}, nil },
		},
		{
			Name:        "show_new_post",
			Description: "Take the newest unseen post from the monitored subreddits and show it.",
			Available: func(_ context.Context, env *Env) bool {
				return len(env.State.PendingPosts) > 0
			},
			Decode: func([]string) (Command, error) { return ShowNewPost{}, nil },
		},
		{
			Name:        "show_conversation_with_new_activity",
			Description: "Take the next unread inbox comment and show its whole conversation.",
			Decode:      func([]string) (Command, error) { return ShowConversationWithNewActivity{}, nil },
		},
		{
			Name:        "reply_to_content",
			Params:      []string{"content_id", "reply_text"},
			Description: "Reply to the post or comment with the given content id.",
			Decode: func(args []string) (Command, error) {
				return ReplyToContent{ContentID: args[0], ReplyText: args[1]}, nil
			},
		},
		{
			Name:        "create_post",
			Params:      []string{"subreddit", "post_title", "post_text"},
			Description: "Create a new text post in one of the agent's subreddits.",
			Available: func(ctx context.Context, env *Env) bool {
				if env.TestMode {
					return true
				}
				wait, err := env.timeUntilNextPost(ctx)
				if err != nil {
					env.Log.Warn("could not evaluate post rate gate", zap.Error(err))
					return false
				}
				return wait == 0
			},
			Decode: func(args []string) (Command, error) {
				return CreatePost{Subreddit: args[0], Title: args[1], Text: args[2]}, nil
			},
		},
	}
}

// ShowUsername reports the authenticated account name.
type ShowUsername struct{}

func (ShowUsername) Name() string { return "show_username" }

func (ShowUsername) Execute(ctx context.Context, env *Env) Outcome {
	me, err := env.Reddit.Me(ctx)
	if err != nil {
		env.Log.Error("could not fetch username", zap.Error(err))
		return errorOutcome("Could not get username")
	}
	return Outcome{"username": me.Name}
}

// ShowNewPost consumes the newest pending post and returns its content.
type ShowNewPost struct{}

func (ShowNewPost) Name() string { return "show_new_post" }

func (ShowNewPost) Execute(ctx context.Context, env *Env) Outcome {
	if len(env.State.PendingPosts) == 0 {
		return Outcome{"note": "No new posts"}
	}
	pending := env.State.PendingPosts[len(env.State.PendingPosts)-1]
	post, err := env.Reddit.Post(ctx, pending.ID)
	if err != nil {
		env.Log.Error("could not fetch pending post", zap.String("id", pending.ID), zap.Error(err))
		return errorOutcome("Could not fetch new post")
	}
	env.State.PendingPosts = env.State.PendingPosts[:len(env.State.PendingPosts)-1]
	return Outcome{
		"post": map[string]string{
			"content_id": post.Fullname(),
			"author":     reddit.AuthorName(post.Author),
			"title":      post.Title,
			"text":       post.Body,
		},
	}
}

// ShowConversationWithNewActivity consumes the next unread inbox comment
// and returns the conversation it belongs to.
type ShowConversationWithNewActivity struct{}

func (ShowConversationWithNewActivity) Name() string { return "show_conversation_with_new_activity" }

func (ShowConversationWithNewActivity) Execute(ctx context.Context, env *Env) Outcome {
	comment, err := popInboxComment(ctx, env)
	if err != nil {
		env.Log.Error("could not read inbox", zap.Error(err))
		return errorOutcome("Could not show conversation")
	}
	if comment == nil {
		return Outcome{"note": "No new comments in inbox"}
	}
	chain, err := conversation.Chain(ctx, env.Reddit, comment.ID)
	if err != nil {
		env.Log.Error("could not build conversation chain", zap.String("comment", comment.ID), zap.Error(err))
		return errorOutcome("Could not show conversation")
	}
	return Outcome{"conversation": chain}
}

// popInboxComment returns the first unread inbox comment, marking it read
// unless the operator declines in test mode. Nil means an empty inbox.
func popInboxComment(ctx context.Context, env *Env) (*reddit.Comment, error) {
	comments, err := env.Reddit.UnreadComments(ctx)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, nil
	}
	comment := comments[0]
	if env.confirm("Mark comment as read?") {
		if err := env.Reddit.MarkRead(ctx, comment.Fullname()); err != nil {
			return nil, err
		}
	}
	return comment, nil
}

// ReplyToContent posts a reply under a post or comment.
type ReplyToContent struct {
	ContentID string
	ReplyText string
}

func (ReplyToContent) Name() string { return "reply_to_content" }

func (c ReplyToContent) Execute(ctx context.Context, env *Env) Outcome {
	switch {
	case strings.HasPrefix(c.ContentID, reddit.PostPrefix):
		id := strings.TrimPrefix(c.ContentID, reddit.PostPrefix)
		if _, err := env.Reddit.Post(ctx, id); err != nil {
			return errorOutcome("Could not fetch post with ID: %s", c.ContentID)
		}
	case strings.HasPrefix(c.ContentID, reddit.CommentPrefix):
		id := strings.TrimPrefix(c.ContentID, reddit.CommentPrefix)
		if _, err := env.Reddit.Comment(ctx, id); err != nil {
			return errorOutcome("Could not fetch comment with ID: %s", c.ContentID)
		}
	default:
		return errorOutcome("Invalid content ID: %s", c.ContentID)
	}
	if err := env.Reddit.Reply(ctx, c.ContentID, c.ReplyText); err != nil {
		env.Log.Error("could not post reply", zap.String("content_id", c.ContentID), zap.Error(err))
		return errorOutcome("Could not reply to content with ID: %s", c.ContentID)
	}
	return Outcome{"result": "Reply posted successfully"}
}

// CreatePost submits a new text post, subject to the allow-list and the
// post rate gate. The gate is re-checked here: availability may have been
// evaluated against older state, and test mode offers the command
// unconditionally.
type CreatePost struct {
	Subreddit string
	Title     string
	Text      string
}

func (CreatePost) Name() string { return "create_post" }

func (c CreatePost) Execute(ctx context.Context, env *Env) Outcome {
	target := reddit.CanonicalSubreddit(c.Subreddit)
	allowed := false
	for _, s := range env.Config.ActiveSubreddits {
		if reddit.CanonicalSubreddit(s) == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return errorOutcome("Not active on subreddit: %s", c.Subreddit)
	}

	wait, err := env.timeUntilNextPost(ctx)
	if err != nil {
		env.Log.Error("could not evaluate post rate gate", zap.Error(err))
		return errorOutcome("Could not create post")
	}
	if wait > 0 {
		return errorOutcome(
			"Not enough time has passed since the last post. Minimum time between posts is %d hours, please wait another %s.",
			env.Config.MinimumTimeBetweenPostsHours, FormatWait(wait))
	}

	if err := env.Reddit.Submit(ctx, target, c.Title, c.Text); err != nil {
		env.Log.Error("could not create post", zap.String("subreddit", target), zap.Error(err))
		return errorOutcome("Could not create post")
	}
	return Outcome{"result": "Post created"}
}

// removePendingPost drops a consumed post from the pending list.
func removePendingPost(s *state.AgentState, id string) {
	kept := s.PendingPosts[:0]
	for _, p := range s.PendingPosts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.PendingPosts = kept
}
