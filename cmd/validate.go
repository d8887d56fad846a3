package cmd

import (
	"fmt"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/snaplabel/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a labelled data directory",
	Long: `Validate checks that a data directory is ready for labelImg and YOLO training.
It verifies predefined_classes.txt, the classes.txt copy in each card directory
and that every label file holds one full-frame box of the card's class.
Image content is not checked. The path defaults to the configured data directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		dataPath := cfg.DataDir
		if len(args) == 1 {
			dataPath = args[0]
		}

		// Check if path exists
		if _, err := os.Stat(dataPath); os.IsNotExist(err) {
			return fmt.Errorf("data directory not found: %s", dataPath)
		}

		// Create validator and run validation
		v := validator.NewValidator(dataPath)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %v", err)
		}

		// Display validation results
		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if len(results.Errors) == 0 {
			fmt.Printf("%s Data directory '%s' is valid.\n", colorize.GreenString("✅"), dataPath)
		} else {
			fmt.Printf("%s Data directory '%s' has %d validation errors:\n",
				colorize.RedString("❌"), dataPath, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println(colorize.YellowString("\nWarnings:"))
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
