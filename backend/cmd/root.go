package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medadmin/m/internal/config"
	"medadmin/m/internal/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "medadmin",
	Short: "Medicine catalog admin panel",
	Long: `medadmin serves a login-gated panel where admins manage their
medicine catalog records and product images.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cfg = config.Load()
		logger.Init(cfg.Env, cfg.LogLevel)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}
