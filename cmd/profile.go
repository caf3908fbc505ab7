package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/assortment-cli/internal/profile"
	"github.com/sells-group/assortment-cli/internal/scorer"
)

var profileID string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the context profile of one product as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lot, err := loadLot()
		if err != nil {
			return err
		}
		target, err := findProduct(lot.Products, profileID)
		if err != nil {
			return err
		}

		scoring, err := scorer.AnalyzeRayon(target, lot.Products)
		if err != nil {
			return err
		}
		prof, err := profile.BuildProfile(target, lot.Products, scoring)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(prof), "profile: encode json")
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileID, "id", "", "product id")
	_ = profileCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(profileCmd)
}
