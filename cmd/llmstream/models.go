package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/providers/ai"
)

var modelsBackend string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the built-in models and their pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		backends := []ai.Backend{ai.BackendAnthropic, ai.BackendOpenAI, ai.BackendGoogle}
		if modelsBackend != "" {
			backends = []ai.Backend{ai.Backend(modelsBackend)}
		}

		registry := client.DefaultRegistry()
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("BACKEND", "MODEL", "CONTEXT", "MAX OUT", "REASONING", "TOOLS", "PRICE")
		for _, backend := range backends {
			for _, model := range registry.Models(backend) {
				table.AddRow(backend, model.ID, model.ContextWindow, model.MaxTokens,
					reasoningLabel(model), model.Tools, model.Pricing)
			}
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), table)
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelsBackend, "backend", "b", "", "Only list models of this backend")
}

func reasoningLabel(model ai.Model) string {
	switch {
	case model.ReasoningXHigh:
		return "xhigh"
	case model.Reasoning:
		return "yes"
	default:
		return "no"
	}
}
