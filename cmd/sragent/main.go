// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sragent CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sragent/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, then the secret value for
// key, then the environment variable envKey.
func secretDefault(key, envKey, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return os.Getenv(envKey)
}

// rootCmd is the base command for the sragent CLI.
var rootCmd = &cobra.Command{
	Use:   "sragent",
	Short: "Resolve bioinformatics accessions across NCBI, ENA, and web search",
	Long: `sragent resolves accession identifiers (GEO, SRA, BioProject, ArrayExpress)
and their associated publications by querying NCBI Entrez, the EBI ENA portal,
and web search in a deterministic fallback order. Transient failures retry
with exponential backoff; results from all sources are deduplicated into a
single ranked answer.

Credentials are read from .env, the environment, or a .secrets/ directory of
per-key files (ncbi-email, ncbi-api-key, google-search-api-key,
google-search-cx).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; environment variables still apply.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sragent.yaml or ~/.config/sragent/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sragent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sragent"))
		}
	}

	viper.SetEnvPrefix("SRAGENT")
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
