package cmd

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chainaudit",
	Short: "Smart-contract audit statistics service",
	Long: `chainaudit owns the audit data model of a smart-contract-audit product
and serves the dashboard and statistics aggregations over HTTP.

Audits, their vulnerabilities, AI insights and quality metrics are stored in
SQLite; a denormalized GlobalStats snapshot is recomputed after every
mutating operation so dashboard reads stay O(1).`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chainaudit.yaml)")
	rootCmd.PersistentFlags().String("db-dir", "", "data directory for the audit database (default is $HOME/.chainaudit)")
	_ = viper.BindPFlag("db-dir", rootCmd.PersistentFlags().Lookup("db-dir"))

	logger.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chainaudit")
	}

	viper.SetEnvPrefix("CHAINAUDIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}
