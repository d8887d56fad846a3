package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/snaplabel/internal/config"
	"github.com/arcanaland/snaplabel/internal/dataset"
	"github.com/arcanaland/snaplabel/internal/labels"
	"github.com/arcanaland/snaplabel/internal/preview"
)

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display a downloaded card with ANSI art and its label",
	Long: `Show renders a downloaded card image as ANSI terminal art next to its
class index and bounding box label.

Examples:
  snaplabel show Groot
  snaplabel show Groot --variant Groot_v1
  snaplabel show Groot --width 60
  snaplabel show Groot --256`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardID := args[0]
		variant, _ := cmd.Flags().GetString("variant")
		width, _ := cmd.Flags().GetInt("width")
		use256Colors, _ := cmd.Flags().GetBool("256")

		cfg, logger, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ds, err := dataset.Load(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error loading data directory: %v", err)
		}

		c, err := ds.GetCard(cardID)
		if err != nil {
			return fmt.Errorf("error getting card: %v", err)
		}

		imagePath, err := c.ImagePath(variant)
		if err != nil {
			return err
		}

		cacheDir := filepath.Join(config.GetCacheDir(), "ansi_cache")
		ansiArt, err := preview.Cached(cacheDir, imagePath, width, !use256Colors)
		if err != nil {
			return fmt.Errorf("error rendering image: %v", err)
		}
		logger.Debug("preview rendered", "image", imagePath, "width", width)

		displayCard(cmd.OutOrStdout(), ds, c, imagePath, ansiArt)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().String("variant", "", "variant to show (default the card's base art)")
	showCmd.Flags().Int("width", preview.DefaultWidth, "preview width in terminal columns")
	showCmd.Flags().Bool("256", false, "use the 256-color palette for terminals without 24-bit color")
}

// displayCard prints the ANSI art on the left and the card details on the right
func displayCard(w io.Writer, ds *dataset.Dataset, c *dataset.CardDir, imagePath, ansiArt string) {
	ansiLines := strings.Split(strings.TrimSuffix(ansiArt, "\n"), "\n")
	maxAnsiWidth := 0
	for _, line := range ansiLines {
		maxAnsiWidth = max(maxAnsiWidth, preview.VisibleWidth(line))
	}

	// Get terminal width
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	image := filepath.Base(imagePath)
	infoLines := []string{
		colorize.CyanString("Card:    ") + colorize.HiWhiteString("%s", c.ID),
		colorize.CyanString("Image:   ") + colorize.HiWhiteString("%s", image),
		colorize.CyanString("Images:  ") + colorize.HiWhiteString("%d", len(c.Images)),
		colorize.CyanString("Labels:  ") + colorize.HiWhiteString("%d", len(c.Labels)),
	}

	classes, err := labels.ReadClasses(ds.ClassesPath)
	switch {
	case err != nil:
		infoLines = append(infoLines, colorize.CyanString("Class:   ")+colorize.YellowString("no %s", dataset.ClassesFile))
	case labels.ClassIndex(classes, c.ID) < 0:
		infoLines = append(infoLines, colorize.CyanString("Class:   ")+colorize.YellowString("not indexed"))
	default:
		infoLines = append(infoLines, colorize.CyanString("Class:   ")+
			colorize.HiWhiteString("%d of %d", labels.ClassIndex(classes, c.ID), len(classes)))
	}

	if label, ok := c.LabelFor(image); ok {
		data, err := os.ReadFile(filepath.Join(c.Path, label))
		if err == nil {
			infoLines = append(infoLines, colorize.CyanString("Box:     ")+
				colorize.HiWhiteString("%s", strings.TrimSpace(string(data))))
		}
	} else {
		infoLines = append(infoLines, colorize.CyanString("Box:     ")+colorize.YellowString("unlabelled"))
	}

	// Art on the left, info on the right
	spacing := 4
	infoStartCol := maxAnsiWidth + spacing
	if infoStartCol+20 > width {
		// Too narrow for side by side; print the info below the art
		infoStartCol = 0
		ansiLines = append(ansiLines, "")
	}

	fmt.Fprintln(w)
	if infoStartCol == 0 {
		for _, line := range ansiLines {
			fmt.Fprintln(w, "  "+line)
		}
		for _, line := range infoLines {
			fmt.Fprintln(w, "  "+line)
		}
		fmt.Fprintln(w)
		return
	}

	maxLines := max(len(ansiLines), len(infoLines))
	for i := 0; i < maxLines; i++ {
		fmt.Fprint(w, "  ")
		if i < len(ansiLines) {
			fmt.Fprint(w, ansiLines[i])
			fmt.Fprint(w, strings.Repeat(" ", infoStartCol-preview.VisibleWidth(ansiLines[i])))
		} else {
			fmt.Fprint(w, strings.Repeat(" ", infoStartCol))
		}

		if i < len(infoLines) {
			fmt.Fprint(w, infoLines[i])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
