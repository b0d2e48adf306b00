package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medadmin/m/internal/seed"
)

var (
	seedOwner string
	seedFile  string
)

var seedCmd = &cobra.Command{
	Use:     "seed",
	Short:   "Import a medicine CSV for an admin account",
	Example: `  medadmin seed --owner admin@admin.com --file assets/medicine.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		// Lookup needs no live sessions.
		provider := newProvider(db, nil, cfg)
		owner, err := provider.LookupUser(ctx, seedOwner)
		if err != nil {
			return fmt.Errorf("owner %s: %w", seedOwner, err)
		}

		res, err := seed.LoadMedicines(ctx, newRecordStore(db, cfg), owner.ID, seedFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d medicines, skipped %d rows\n", res.Created, res.Skipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "email of the admin who will own the records")
	seedCmd.Flags().StringVar(&seedFile, "file", "assets/medicine.csv", "path of the catalog CSV")
	_ = seedCmd.MarkFlagRequired("owner")
}
