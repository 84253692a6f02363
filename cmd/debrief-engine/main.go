// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the debrief-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/debrief-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultModel = "gemini-3-flash-preview"
	defaultAgent = "deep-research-pro-preview-12-2025"

	geminiKeyFile = "gemini-api-key"
	geminiKeyEnv  = "GEMINI_API_KEY"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the engine logger, built from the --verbose flag.
var logger *zap.Logger

// resolveAPIKey returns the Gemini API key from the flag, the secrets
// directory, or the environment, in that order.
func resolveAPIKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if key := secrets.Value(loadedSecrets, geminiKeyFile, geminiKeyEnv); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no Gemini API key: provide --api-key, .secrets/%s, or %s", geminiKeyFile, geminiKeyEnv)
}

// rootCmd is the base command for the debrief-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "debrief-engine",
	Short: "Summarize conversation transcripts and research their open questions",
	Long: `debrief-engine maintains a per-topic debrief of conversation transcripts and
enhances it with asynchronous deep research. Each topic is a directory of
transcript files; the engine condenses new transcripts into DEBRIEF.md, mines
the debrief for open questions, and writes researched findings to RESEARCH.md.

Each stage is a subcommand: process updates debriefs, research runs the
research pipeline, crosstopic finds connections between topics, rate scores
debrief quality, history inspects past research runs, and watch keeps
debriefs current as new transcripts land.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return err
			}
		} else {
			logger = zap.NewNop()
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./debrief-engine.yaml or ~/.config/debrief-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log engine internals (polling, watch events) to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("debrief-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "debrief-engine"))
		}
	}

	viper.SetEnvPrefix("DEBRIEF_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
