// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the stackpair CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// Configuration keys shared by flags, the config file and STACKPAIR_ env vars.
const (
	keyMinScore     = "min_score"
	keyMaxResponses = "max_responses"
	keyWorkers      = "workers"
	keyDumpsDir     = "dumps_dir"
	keyOutDir       = "out_dir"
	keyTable        = "table"
	keyCompression  = "compression"
)

// rootCmd is the base command for the stackpair CLI.
var rootCmd = &cobra.Command{
	Use:   "stackpair",
	Short: "Turn StackExchange Posts.xml dumps into question/answer pair tables",
	Long: `stackpair streams an extracted StackExchange Posts.xml dump, joins every
answer to its parent question and writes the resulting (question, answer)
pairs as a Parquet table with a config.yaml manifest.

Dumps are read from <dumps-dir>/<name>/Posts.xml and written to
<out-dir>/<name>/. Completed runs are recorded in <out-dir>/stackpair.db so
unchanged dumps are skipped on the next run.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./stackpair.yaml or ~/.config/stackpair/stackpair.yaml)")
	rootCmd.PersistentFlags().String("out-dir", "out", "output directory (one subdirectory per dataset, plus the run ledger)")
	viper.BindPFlag(keyOutDir, rootCmd.PersistentFlags().Lookup("out-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("stackpair")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "stackpair"))
		}
	}

	viper.SetEnvPrefix("STACKPAIR")
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
