package reddit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 10 * time.Second
	maxRetryBackoff     = 5 * time.Minute
	seenCapacity        = 1000
	streamFetchLimit    = 100
)

// Streamer is a blocking subscription over the newest posts of a set of
// subreddits. It polls the /new listing, deduplicates by id, and delivers
// unseen posts oldest first. Transient listing errors are logged and
// retried with growing backoff; the stream never terminates on them.
type Streamer struct {
	Client       Client
	Subreddits   []string
	PollInterval time.Duration
	Log          *zap.Logger

	seen     map[string]struct{}
	seenFIFO []string
}

// Run polls until ctx is done, sending unseen posts to out. Always returns
// ctx.Err().
func (s *Streamer) Run(ctx context.Context, out chan<- *Post) error {
	if s.PollInterval <= 0 {
		s.PollInterval = defaultPollInterval
	}
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	s.seen = make(map[string]struct{}, seenCapacity)

	backoff := s.PollInterval
	for {
		posts, err := s.Client.NewPosts(ctx, s.Subreddits, streamFetchLimit)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Log.Warn("post stream fetch failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff *= 2; backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
			continue
		}
		backoff = s.PollInterval

		// The listing is newest first; deliver in creation order.
		for i := len(posts) - 1; i >= 0; i-- {
			p := posts[i]
			if s.markSeen(p.ID) {
				continue
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !sleep(ctx, s.PollInterval) {
			return ctx.Err()
		}
	}
}

// markSeen records an id, evicting the oldest entry at capacity, and
// reports whether it was already present.
func (s *Streamer) markSeen(id string) bool {
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	s.seenFIFO = append(s.seenFIFO, id)
	if len(s.seenFIFO) > seenCapacity {
		delete(s.seen, s.seenFIFO[0])
		s.seenFIFO = s.seenFIFO[1:]
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
