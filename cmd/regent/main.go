package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"regent/internal/fmtlog"
	"regent/internal/logging"
)

var (
	// Global flags
	logLevel       string
	markdownLogDir string

	logger *zap.Logger
	fmtLog = fmtlog.New()
)

var rootCmd = &cobra.Command{
	Use:   "regent",
	Short: "regent - a Reddit AI agent",
	Long: `regent runs an AI agent on Reddit.

It monitors a set of subreddits for new posts and its inbox for replies,
asks a generation provider which command to run, and executes the chosen
command: showing content, replying, or creating posts. All activity is
recorded in a persistent action history so the agent can keep track of
its strategy across restarts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logLevel)
		if err != nil {
			return err
		}

		fmtLog.Register(fmtlog.NewTerminal())
		name := time.Now().Format("2006-01-02_15-04-05") + ".log.md"
		md, err := fmtlog.NewMarkdown(filepath.Join(markdownLogDir, name))
		if err != nil {
			return err
		}
		fmtLog.Register(md)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&markdownLogDir, "markdown-log-dir", ".", "directory for markdown session logs")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(authCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
