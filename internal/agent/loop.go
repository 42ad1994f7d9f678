package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"regent/internal/conversation"
	"regent/internal/provider"
	"regent/internal/reddit"
	"regent/internal/state"
)

// Run starts the stream producer and the decision loop and blocks until
// ctx is done. The producer only ever writes to the queue; all state
// mutation happens on the loop goroutine.
func Run(ctx context.Context, env *Env, reg *Registry) error {
	queue := make(chan *reddit.Post, 64)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runProducer(ctx, env, queue) })
	g.Go(func() error { return runLoop(ctx, env, reg, queue) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runLoop(ctx context.Context, env *Env, reg *Registry, queue <-chan *reddit.Post) error {
	// Give the producer a moment to surface the first posts so the very
	// first cycle is not guaranteed empty.
	if err := drainStream(env, queue, firstDrainWait); err != nil {
		return fmt.Errorf("initial stream drain: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log := env.Log.With(zap.String("cycle", uuid.NewString()))

		if err := reactPhase(ctx, env, reg, queue, log); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("react phase failed, abandoning cycle", zap.Error(err))
		}
		if err := actPhase(ctx, env, reg, log); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("act phase failed, abandoning cycle", zap.Error(err))
		}

		if env.TestMode && env.WaitEnter != nil {
			env.WaitEnter()
			continue
		}
		env.Fmt.Textf("Waiting %s before handling the next event.", env.Config.IterationInterval())
		if !waitNext(ctx, env.Config.IterationInterval()) {
			return ctx.Err()
		}
	}
}

// reactPhase drains the stream into state and reacts to at most one inbox
// comment and one pending post, inbox strictly first.
func reactPhase(ctx context.Context, env *Env, reg *Registry, queue <-chan *reddit.Post, log *zap.Logger) error {
	env.Fmt.Text("Waiting for event...")

	comments, err := env.Reddit.UnreadComments(ctx)
	if err != nil {
		return fmt.Errorf("list inbox: %w", err)
	}
	env.Fmt.Textf("Number of messages in inbox: %d", len(comments))
	env.Fmt.Textf("Number of unread posts: %d", len(env.State.PendingPosts))
	if err := drainStream(env, queue, 0); err != nil {
		return fmt.Errorf("drain stream: %w", err)
	}

	handled := false
	if len(comments) > 0 {
		if err := reactToInboxComment(ctx, env, reg, comments[0], log); err != nil {
			return err
		}
		handled = true
	}
	if len(env.State.PendingPosts) > 0 {
		if err := reactToPendingPost(ctx, env, reg, log); err != nil {
			return err
		}
		handled = true
	}
	if !handled {
		env.Fmt.Text("No new events.")
	}
	return nil
}

func reactToInboxComment(ctx context.Context, env *Env, reg *Registry, comment *reddit.Comment, log *zap.Logger) error {
	chain, err := conversation.Chain(ctx, env.Reddit, comment.ID)
	if err != nil {
		return fmt.Errorf("conversation for inbox comment %s: %w", comment.ID, err)
	}
	chainJSON, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return fmt.Errorf("render conversation: %w", err)
	}

	env.Fmt.Header(3, "New inbox comment event:")
	env.Fmt.Textf("From: %s", reddit.AuthorName(comment.Author))
	env.Fmt.Textf("Comment: %s", comment.Body)
	env.Fmt.Textf("Link: https://reddit.com%s", comment.Context)

	if err := runDecision(ctx, env, reg, inboxEventMessage(string(chainJSON)), log); err != nil {
		return err
	}

	if env.confirm("Mark comment as read?") {
		if err := env.Reddit.MarkRead(ctx, comment.Fullname()); err != nil {
			return fmt.Errorf("mark comment %s read: %w", comment.ID, err)
		}
	}
	return nil
}

func reactToPendingPost(ctx context.Context, env *Env, reg *Registry, log *zap.Logger) error {
	pending := env.State.PendingPosts[len(env.State.PendingPosts)-1]
	tree, err := conversation.Build(ctx, env.Reddit, pending.ID, conversation.DefaultMaxTreeSize)
	if err != nil {
		return fmt.Errorf("conversation tree for post %s: %w", pending.ID, err)
	}
	if tree.Author == reddit.AuthorName("") {
		log.Info("skipping post with unknown author", zap.String("id", pending.ID), zap.String("title", tree.Title))
	} else {
		treeJSON, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("render conversation tree: %w", err)
		}

		env.Fmt.Header(3, "New post event:")
		env.Fmt.Textf("Subreddit: r/%s", tree.Subreddit)
		env.Fmt.Textf("Title: %s", tree.Title)
		env.Fmt.Textf("Author: %s", tree.Author)
		env.Fmt.Textf("Text: %s", tree.Text)

		if err := runDecision(ctx, env, reg, postEventMessage(string(treeJSON), conversation.DefaultMaxTreeSize), log); err != nil {
			return err
		}
	}

	if env.confirm("Remove post from stream?") {
		removePendingPost(env.State, pending.ID)
		if err := env.SaveState(); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return nil
}

// actPhase offers the agent a scheduled self-post once the rate gate has
// elapsed. It runs every cycle, independent of whether react handled an
// event.
func actPhase(ctx context.Context, env *Env, reg *Registry, log *zap.Logger) error {
	if !env.Config.EnableScheduledPosts {
		return nil
	}
	wait, err := env.timeUntilNextPost(ctx)
	if err != nil {
		return fmt.Errorf("evaluate post rate gate: %w", err)
	}
	if wait > 0 {
		log.Debug("post rate gate still closed", zap.Duration("remaining", wait))
		return nil
	}
	env.Fmt.Header(3, "Scheduled post event:")
	return runDecision(ctx, env, reg, scheduledPostEventMessage(), log)
}

// runDecision performs one full decision round: prompt assembly, provider
// call, decode, availability re-check, optional confirmation, execution,
// and history append. Provider failures end the round without touching
// history; decode and availability failures are themselves recorded as
// error outcomes so the agent can see and correct them.
func runDecision(ctx context.Context, env *Env, reg *Registry, eventMessage string, log *zap.Logger) error {
	available := reg.ListAvailable(ctx, env)
	sys := systemPrompt(env, available)
	prompt := eventPrompt(eventMessage)

	env.Fmt.Text("Generating a decision...")
	decision, err := env.Provider.Decide(ctx, sys, prompt)
	if err != nil {
		env.Fmt.Text("Error: Could not get a decision.")
		log.Error("provider decision failed", zap.Error(err))
		return nil
	}

	env.Fmt.Header(3, "Model decision:")
	env.Fmt.Code(renderDecision(decision))

	cmd, err := reg.Decode(decision.Command, decision.Parameters)
	if err != nil {
		log.Warn("decision did not decode", zap.String("command", decision.Command), zap.Error(err))
		return recordOutcome(env, decision, errorOutcome("%s", err))
	}

	// Availability may have changed since the menu was assembled, and the
	// model is free to name commands it was not offered.
	if spec, ok := reg.Spec(decision.Command); ok && spec.Available != nil && !spec.Available(ctx, env) {
		log.Warn("decision named unavailable command", zap.String("command", decision.Command))
		return recordOutcome(env, decision, errorOutcome("Command not available: %s", decision.Command))
	}

	if !env.confirm(fmt.Sprintf("Execute %s?", decision.Command)) {
		log.Info("command skipped on operator's request", zap.String("command", decision.Command))
		return nil
	}

	outcome := cmd.Execute(ctx, env)
	env.Fmt.Header(3, "Action result:")
	env.Fmt.Code(outcome.YAML())
	return recordOutcome(env, decision, outcome)
}

func recordOutcome(env *Env, decision *provider.Decision, outcome Outcome) error {
	env.State.AppendHistory(historyItem(decision, outcome), env.Config.MaxHistoryLength)
	if err := env.SaveState(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func historyItem(decision *provider.Decision, outcome Outcome) state.HistoryItem {
	action := fmt.Sprintf("%s(%s)", decision.Command, strings.Join(decision.Parameters, ", "))
	if decision.NotesAndStrategy != "" {
		action += " " + decision.NotesAndStrategy
	}
	return state.HistoryItem{ModelAction: action, ActionResult: outcome.YAML()}
}

func renderDecision(d *provider.Decision) string {
	data, err := yaml.Marshal(map[string]any{
		"command":            d.Command,
		"parameters":         d.Parameters,
		"notes_and_strategy": d.NotesAndStrategy,
	})
	if err != nil {
		return fmt.Sprintf("command: %s", d.Command)
	}
	return strings.TrimSpace(string(data))
}

func waitNext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
