package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regent/internal/agent"
	"regent/internal/config"
	"regent/internal/provider"
	"regent/internal/reddit"
	"regent/internal/state"
)

const (
	redditConfigPath   = "config/reddit_config.yaml"
	providerConfigPath = "config/provider_config.yaml"
	stateFilePath      = "agent_state.json"
)

var (
	providerFlag string
	testMode     bool
)

var runCmd = &cobra.Command{
	Use:   "run [agent-schema-file]",
	Short: "Run the agent loop",
	Long: `Loads the agent schema, connects to Reddit and the generation
provider, and runs the agent until interrupted.

With --test-mode, every side effect asks for confirmation and the loop
waits for enter between cycles instead of sleeping. Creating a post is
always offered in test mode, regardless of the rate gate.`,
	Args: cobra.ExactArgs(1),
	RunE: runAgent,
}

func init() {
	runCmd.Flags().StringVar(&providerFlag, "provider", "", "generation provider (gemini, openai); overrides the provider config file")
	runCmd.Flags().BoolVar(&testMode, "test-mode", false, "confirm every action and pace cycles on operator input")
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agentCfg, err := config.LoadAgentConfig(args[0])
	if err != nil {
		return err
	}
	fmtLog.Textf("Loaded agent: %s", agentCfg.Name)

	redditCfg, err := config.LoadRedditConfig(redditConfigPath, true)
	if err != nil {
		return err
	}
	client := reddit.NewClient(reddit.Credentials{
		ClientID:     redditCfg.ClientID,
		ClientSecret: redditCfg.ClientSecret,
		RefreshToken: redditCfg.RefreshToken,
		UserAgent:    redditCfg.UserAgent,
	}, logger)

	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("verify Reddit login: %w", err)
	}
	fmtLog.Textf("Logged in as: %s", me.Name)

	gen, err := buildProvider(ctx)
	if err != nil {
		return err
	}

	store := state.NewStore(stateFilePath)
	agentState, err := store.Load()
	if err != nil {
		return err
	}

	reg, err := agent.NewRegistry(agent.Specs())
	if err != nil {
		return err
	}

	env := &agent.Env{
		Reddit:    client,
		Provider:  gen,
		Config:    agentCfg,
		Store:     store,
		State:     agentState,
		Log:       logger,
		Fmt:       fmtLog,
		Username:  me.Name,
		TestMode:  testMode,
		Confirm:   agent.StdinConfirm,
		WaitEnter: agent.StdinWaitEnter,
	}

	logger.Info("starting agent",
		zap.String("agent", agentCfg.Name),
		zap.Strings("subreddits", agentCfg.ActiveSubreddits),
		zap.Bool("test_mode", testMode))
	return agent.Run(ctx, env, reg)
}

func buildProvider(ctx context.Context) (provider.Provider, error) {
	cfg, err := config.LoadProviderConfig(providerConfigPath, providerFlag)
	if err != nil {
		return nil, err
	}
	fmtLog.Textf("Using provider: %s", cfg.Provider)

	switch cfg.Provider {
	case config.ProviderGemini:
		return provider.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		return provider.NewOpenAIClient(provider.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		}), nil
	default:
		return nil, fmt.Errorf("provider not implemented: %s", cfg.Provider)
	}
}
