// Package commands implements the CLI commands for feedclean.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/feedclean/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "feedclean",
	Short: "Declarative cleaning of syndicated article HTML",
	Long: `Feedclean strips boilerplate from article HTML using declarative rule files
and a built-in junk pass, and rewrites RSS feeds with cleaned descriptions.

Examples:
  # Clean a saved article with a rule file
  feedclean clean article.html --rules rules/wechat.yaml

  # Clean a feed and write it back out as RSS
  feedclean feed https://rsshub.example.com/wechat/abc --rules rules/wechat.yaml --format rss

  # Run a source from the config file
  feedclean feed --source wechat-daily -o daily.json

  # Check rule files
  feedclean rules validate rules/*.yaml`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.feedclean.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".feedclean")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FEEDCLEAN")
	viper.AutomaticEnv()

	// A missing config file is fine; sources are then unavailable.
	_ = viper.ReadInConfig()
}

// initLogger configures logging from the bound global flags.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "path", used)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
