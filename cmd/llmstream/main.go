// Command llmstream streams a prompt through any supported backend, running
// the built-in tools in a multi-turn loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/providers/observability/slogobs"
)

var (
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "llmstream",
	Short: "Stream LLM responses from Anthropic, OpenAI and Google",
	Long: `llmstream sends a prompt to one of the supported backends and prints the
response as it streams. Tool calls are answered by the built-in calculator
and web_fetch tools until the model produces a final answer.

Credentials are read from ANTHROPIC_API_KEY, OPENAI_API_KEY and
GEMINI_API_KEY, optionally loaded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return client.LoadEnv(envFiles...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: ./llmstream.yaml when present)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Files to load into the environment (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default: $LLMSTREAM_LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default: $LLMSTREAM_LOG_FORMAT or text)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newObserver builds the observer used by every command. Logs go to stderr
// so they never mix with streamed output.
func newObserver() (*slogobs.Observer, error) {
	opts := []slogobs.Option{slogobs.WithOutput(os.Stderr)}

	switch {
	case logLevel != "":
		level, err := slogobs.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		opts = append(opts, slogobs.WithLevel(level))
	case os.Getenv("LLMSTREAM_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") == "":
		opts = append(opts, slogobs.WithLevel(slog.LevelWarn))
	}
	if logFormat != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(logFormat)))
	}
	return slogobs.New(opts...), nil
}
