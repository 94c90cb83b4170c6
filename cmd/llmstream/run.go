package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/patterns/react"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/tool"
	"github.com/leofalp/llmstream/providers/tool/calculator"
	"github.com/leofalp/llmstream/providers/tool/webfetch"
)

var runFlags struct {
	backend      string
	model        string
	system       string
	maxTurns     int
	maxTokens    int
	reasoning    string
	serviceTier  string
	tools        []string
	showThinking bool
	noTools      bool
	debugFile    string
}

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Stream one prompt through the tool loop",
	Long: `Run sends the prompt to the configured model and streams the answer.
Without arguments the prompt is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &config)
		if err := config.validate(); err != nil {
			return err
		}

		prompt, err := readPrompt(args)
		if err != nil {
			return err
		}

		observer, err := newObserver()
		if err != nil {
			return err
		}

		catalog, err := buildCatalog(config.Tools)
		if err != nil {
			return err
		}

		options := client.StreamOptions{
			MaxTokens:       config.MaxTokens,
			ReasoningEffort: ai.ReasoningEffort(config.ReasoningEffort),
			Temperature:     config.Temperature,
			ServiceTier:     cost.ServiceTier(config.ServiceTier),
		}
		if runFlags.debugFile != "" {
			file, err := os.Create(runFlags.debugFile)
			if err != nil {
				return fmt.Errorf("open debug file: %w", err)
			}
			defer utils.CloseWithLog(file)
			options.Debug = ai.NewDebugWriter(file)
		}

		c := client.New(client.WithObserver(observer))
		agent := react.New(c, ai.Backend(config.Backend), config.Model, nil,
			react.WithMaxTurns(config.MaxTurns),
			react.WithCatalog(catalog),
			react.WithStreamOptions(options),
		)

		conversation := ai.Conversation{
			SystemPrompt: config.System,
			Messages:     []ai.Message{&ai.UserMessage{Text: prompt}},
		}

		out := newRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), config.ShowThinking)
		stream := agent.Run(cmd.Context(), conversation)
		for event := range stream.All() {
			out.render(event)
		}

		result, err := stream.Result(cmd.Context())
		if err != nil {
			return err
		}
		out.summary(result)
		return result.Err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runFlags.backend, "backend", "b", "", "Backend: anthropic, openai or google")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "Model id")
	runCmd.Flags().StringVarP(&runFlags.system, "system", "s", "", "System prompt")
	runCmd.Flags().IntVar(&runFlags.maxTurns, "max-turns", 0, "Maximum number of model calls")
	runCmd.Flags().IntVar(&runFlags.maxTokens, "max-tokens", 0, "Maximum output tokens per call")
	runCmd.Flags().StringVarP(&runFlags.reasoning, "reasoning", "r", "", "Reasoning effort: none, minimal, low, medium, high, xhigh")
	runCmd.Flags().StringVar(&runFlags.serviceTier, "service-tier", "", "Service tier on OpenAI: auto, flex, priority")
	runCmd.Flags().StringSliceVar(&runFlags.tools, "tool", nil, "Tools to offer (calculator, web_fetch)")
	runCmd.Flags().BoolVar(&runFlags.noTools, "no-tools", false, "Offer no tools")
	runCmd.Flags().BoolVar(&runFlags.showThinking, "show-thinking", false, "Print reasoning to stderr")
	runCmd.Flags().StringVar(&runFlags.debugFile, "debug-file", "", "Write request payloads and raw vendor events as JSON lines to this file")
}

// applyRunFlags overrides config with the flags that were set explicitly.
func applyRunFlags(cmd *cobra.Command, config *Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		config.Backend = runFlags.backend
	}
	if flags.Changed("model") {
		config.Model = runFlags.model
	}
	if flags.Changed("system") {
		config.System = runFlags.system
	}
	if flags.Changed("max-turns") {
		config.MaxTurns = runFlags.maxTurns
	}
	if flags.Changed("max-tokens") {
		config.MaxTokens = runFlags.maxTokens
	}
	if flags.Changed("reasoning") {
		config.ReasoningEffort = runFlags.reasoning
	}
	if flags.Changed("service-tier") {
		config.ServiceTier = runFlags.serviceTier
	}
	if flags.Changed("tool") {
		config.Tools = runFlags.tools
	}
	if runFlags.noTools {
		config.Tools = nil
	}
	if flags.Changed("show-thinking") {
		config.ShowThinking = runFlags.showThinking
	}
}

func readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}
	return prompt, nil
}

// buildCatalog resolves tool names to the built-in tools.
func buildCatalog(names []string) (*tool.Catalog, error) {
	catalog := tool.NewCatalog()
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "calculator":
			catalog.Add(calculator.New())
		case "web_fetch", "webfetch":
			catalog.Add(webfetch.New())
		default:
			return nil, fmt.Errorf("unknown tool %q", name)
		}
	}
	return catalog, nil
}
