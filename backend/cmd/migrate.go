package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info().Msg("schema up to date")
		return nil
	},
}
