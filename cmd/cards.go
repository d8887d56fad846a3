package cmd

import (
	"fmt"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/snaplabel/internal/card"
	"github.com/arcanaland/snaplabel/internal/dataset"
	"github.com/arcanaland/snaplabel/internal/labels"
	"github.com/arcanaland/snaplabel/internal/snapapi"
)

// cardsCmd represents the cards command group
var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List local and remote cards",
	Long:  `Commands for inspecting the cards in your data directory and on the asset API.`,
}

// cardsListCmd lists the card directories in the data directory
var cardsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List downloaded cards with image and label counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
			fmt.Printf("Data directory %s does not exist.\n", cfg.DataDir)
			fmt.Println("Run 'snaplabel -c <card>' or 'snaplabel -a' to download artwork.")
			return nil
		}

		ds, err := dataset.Load(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error loading data directory: %v", err)
		}

		ids := ds.CardIDs()
		if len(ids) == 0 {
			fmt.Println("No cards found in", cfg.DataDir)
			return nil
		}

		// A missing class index only hides the class column
		classes, _ := labels.ReadClasses(ds.ClassesPath)

		for _, id := range ids {
			c := ds.Cards[id]

			class := "-"
			if i := labels.ClassIndex(classes, id); i >= 0 {
				class = fmt.Sprint(i)
			}

			status := colorize.GreenString("labelled")
			switch {
			case len(c.Labels) == 0:
				status = colorize.YellowString("unlabelled")
			case len(c.Labels) < len(c.Images) || !c.HasClasses:
				status = colorize.YellowString("partial")
			}

			fmt.Printf("%-5s %-28s %3d images %3d labels  %s\n",
				class, colorize.HiWhiteString("%s", id), len(c.Images), len(c.Labels), status)
		}
		return nil
	},
}

// cardsRemoteCmd lists released cards on the asset API
var cardsRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "List released cards on the asset API with their variant counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		client, err := snapapi.NewClient(cfg, snapapi.WithLogger(logger))
		if err != nil {
			return err
		}

		cards, err := client.FetchCards(cmd.Context())
		if err != nil {
			return fmt.Errorf("error fetching cards: %v", err)
		}
		artVariants, err := client.FetchArtVariants(cmd.Context())
		if err != nil {
			return fmt.Errorf("error fetching art variants: %v", err)
		}
		variants := card.ResolveVariants(artVariants)

		for i, c := range cards {
			fmt.Printf("%-5d %-28s series %d  %3d variants\n",
				i, colorize.HiWhiteString("%s", c.ID), c.Series, variants.Count(c.ID))
		}
		fmt.Printf("\n%d cards, %d variants\n", len(cards), len(artVariants))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cardsCmd)
	cardsCmd.AddCommand(cardsListCmd)
	cardsCmd.AddCommand(cardsRemoteCmd)
}
