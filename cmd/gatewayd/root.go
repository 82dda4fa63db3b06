package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gatewayd",
	Short: "gatewayd routes LLM API requests across OpenAI, Anthropic, and Gemini dialects",
	Long: `gatewayd is a reverse-proxy gateway for LLM APIs.

It accepts requests in the OpenAI, Anthropic, or Gemini wire format, resolves
the client-addressed model to a group of configured upstream endpoints, picks
one by weighted and health-aware selection, translates the request into the
endpoint's own dialect, and streams the translated response back.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
