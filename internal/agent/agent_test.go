package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"regent/internal/config"
	"regent/internal/fmtlog"
	"regent/internal/provider"
	"regent/internal/reddit"
	"regent/internal/state"
)

// fakeReddit serves canned data and records write calls.
type fakeReddit struct {
	me        *reddit.Account
	posts     map[string]*reddit.Post
	comments  map[string]*reddit.Comment
	trees     map[string][]*reddit.Comment
	unread    []*reddit.Comment
	latest    *reddit.Post
	latestErr error
	newPosts  []*reddit.Post

	markedRead []string
	replied    [][2]string
	submitted  [][3]string
}

func (f *fakeReddit) Me(context.Context) (*reddit.Account, error) {
	if f.me == nil {
		return nil, fmt.Errorf("no account")
	}
	return f.me, nil
}

func (f *fakeReddit) Post(_ context.Context, id string) (*reddit.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("no post %s", id)
	}
	return p, nil
}

func (f *fakeReddit) Comment(_ context.Context, id string) (*reddit.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, fmt.Errorf("no comment %s", id)
	}
	return c, nil
}

func (f *fakeReddit) CommentTree(ctx context.Context, postID string) (*reddit.Post, []*reddit.Comment, error) {
	p, err := f.Post(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return p, f.trees[postID], nil
}

func (f *fakeReddit) UnreadComments(context.Context) ([]*reddit.Comment, error) {
	return f.unread, nil
}

func (f *fakeReddit) MarkRead(_ context.Context, fullname string) error {
	f.markedRead = append(f.markedRead, fullname)
	return nil
}

func (f *fakeReddit) Reply(_ context.Context, fullname, text string) error {
	f.replied = append(f.replied, [2]string{fullname, text})
	return nil
}

func (f *fakeReddit) Submit(_ context.Context, subreddit, title, body string) error {
	f.submitted = append(f.submitted, [3]string{subreddit, title, body})
	return nil
}

func (f *fakeReddit) LatestPost(context.Context, string) (*reddit.Post, error) {
	return f.latest, f.latestErr
}

func (f *fakeReddit) NewPosts(context.Context, []string, int) ([]*reddit.Post, error) {
	return f.newPosts, nil
}

// fakeProvider replays scripted decisions and records the prompts it saw.
type fakeProvider struct {
	decisions []*provider.Decision
	err       error

	sysPrompts []string
	prompts    []string
}

func (f *fakeProvider) Decide(_ context.Context, systemPrompt, prompt string) (*provider.Decision, error) {
	f.sysPrompts = append(f.sysPrompts, systemPrompt)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.decisions) == 0 {
		return nil, fmt.Errorf("no scripted decision left")
	}
	d := f.decisions[0]
	f.decisions = f.decisions[1:]
	return d, nil
}

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, rc *fakeReddit) *Env {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "agent_state.json"))
	st, err := store.Load()
	require.NoError(t, err)

	cfg := config.DefaultAgentConfig()
	cfg.Name = "testbot"
	cfg.Instructions = "Be helpful."
	cfg.ActiveSubreddits = []string{"golang", "testsub"}

	return &Env{
		Reddit:   rc,
		Config:   cfg,
		Store:    store,
		State:    st,
		Log:      zap.NewNop(),
		Fmt:      fmtlog.New(),
		Username: "testbot",
		Now:      func() time.Time { return testNow },
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(Specs())
	require.NoError(t, err)
	return reg
}
