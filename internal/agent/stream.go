package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"regent/internal/reddit"
	"regent/internal/state"
)

const (
	// maxPendingPosts caps the pending list; the oldest entries are
	// dropped first.
	maxPendingPosts = 8

	// firstDrainWait bounds the one blocking drain on startup, so the
	// first cycle does not run against an empty queue.
	firstDrainWait = 10 * time.Second
)

// runProducer subscribes to the monitored subreddits and forwards
// reply-worthy posts to the queue: not the agent's own, carrying body
// text, and still inside the reply-eligibility window. Runs until ctx is
// done.
func runProducer(ctx context.Context, env *Env, out chan<- *reddit.Post) error {
	env.Log.Info("monitoring subreddits", zap.Strings("subreddits", env.Config.ActiveSubreddits))

	in := make(chan *reddit.Post, 16)
	streamer := &reddit.Streamer{
		Client:     env.Reddit,
		Subreddits: env.Config.ActiveSubreddits,
		Log:        env.Log,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return streamer.Run(ctx, in) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case p := <-in:
				if !wantPost(env, p) {
					continue
				}
				env.Log.Debug("queuing new post",
					zap.String("id", p.ID), zap.String("title", p.Title), zap.Time("created", p.Created))
				select {
				case out <- p:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})
	return g.Wait()
}

func wantPost(env *Env, p *reddit.Post) bool {
	switch {
	case p.Author == env.Username:
		env.Log.Debug("skipping own post", zap.String("id", p.ID), zap.String("title", p.Title))
		return false
	case !p.IsSelf:
		env.Log.Debug("skipping post without text", zap.String("id", p.ID), zap.String("title", p.Title))
		return false
	case p.Created.Before(env.now().Add(-env.Config.MaxPostAge())):
		env.Log.Debug("skipping post past reply window",
			zap.String("id", p.ID), zap.Time("created", p.Created))
		return false
	}
	return true
}

// drainStream moves queued posts into durable state. Items at or before
// the high-water timestamp are stale and dropped; newer items advance the
// watermark and join the pending list unless already present. The pending
// list is then filtered to the reply-eligibility window and trimmed to the
// newest maxPendingPosts. State is persisted after every drain.
//
// wait bounds a single blocking receive before the non-blocking drain;
// zero drains without blocking at all.
func drainStream(env *Env, queue <-chan *reddit.Post, wait time.Duration) error {
	if wait > 0 {
		select {
		case p := <-queue:
			ingest(env, p)
		case <-time.After(wait):
		}
	}
	for {
		select {
		case p := <-queue:
			ingest(env, p)
			continue
		default:
		}
		break
	}

	cutoff := env.now().Add(-env.Config.MaxPostAge())
	kept := env.State.PendingPosts[:0]
	for _, p := range env.State.PendingPosts {
		if p.Timestamp.After(cutoff) {
			kept = append(kept, p)
		} else {
			env.Log.Info("removing pending post past reply window",
				zap.String("id", p.ID), zap.Time("created", p.Timestamp))
		}
	}
	if len(kept) > maxPendingPosts {
		kept = kept[len(kept)-maxPendingPosts:]
	}
	env.State.PendingPosts = kept

	return env.SaveState()
}

func ingest(env *Env, p *reddit.Post) {
	if !p.Created.After(env.State.StreamedUntil) {
		env.Log.Debug("skipping post at or before watermark",
			zap.String("id", p.ID), zap.Time("created", p.Created), zap.Time("watermark", env.State.StreamedUntil))
		return
	}
	env.State.StreamedUntil = p.Created
	if env.State.HasPending(p.ID) {
		env.Log.Info("skipping already pending post", zap.String("id", p.ID), zap.String("title", p.Title))
		return
	}
	env.State.PendingPosts = append(env.State.PendingPosts, state.PendingPost{
		ID:        p.ID,
		Timestamp: p.Created,
	})
}
