package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/gamebible/internal/game"
)

var seedJSON bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Print a random game concept without generating anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := game.NewSeeder(nil).RandomSeed()

		if seedJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(req)
		}

		fmt.Println(titleStyle.Render(req.Title))
		fmt.Printf("%s %s\n", accentStyle.Render("Genre:"), req.Genre)
		fmt.Printf("%s %s\n", accentStyle.Render("Ambiance:"), req.Mood)
		fmt.Printf("%s %s\n", accentStyle.Render("Mots-clés:"), req.Keywords)
		fmt.Printf("%s %s\n", accentStyle.Render("Références:"), req.References)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedJSON, "json", false, "Print the concept as JSON")
}
