package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/snaplabel/internal/config"
	"github.com/arcanaland/snaplabel/internal/logging"
	"github.com/arcanaland/snaplabel/internal/pipeline"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile string
	runOpts pipeline.Options
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "snaplabel [OPTIONS]...",
	Version: Version,
	Short:   "Download Marvel Snap card art and generate labelImg/YOLO labels",
	Long: `Snaplabel downloads rendered card artwork from the Marvel Snap asset API
and prepares it for labelImg and YOLO training: a predefined class list,
one directory of images per card and a full-frame bounding box label per image.

Examples:
  snaplabel -p                 write data/predefined_classes.txt
  snaplabel -c HighEvolutionary get images for a single card
  snaplabel -a                 get images for all released cards
  snaplabel -p -a -i -b        everything, labels included`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			colorize.NoColor = true
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !runOpts.Predefined && runOpts.Card == "" && !runOpts.All && !runOpts.Images && !runOpts.Boxes {
			return cmd.Help()
		}
		if runOpts.FromDisk && !runOpts.Predefined {
			return fmt.Errorf("--from-disk only applies with --predefined")
		}
		if (runOpts.Images || runOpts.Boxes) && runOpts.Card == "" && !runOpts.All {
			return fmt.Errorf("--images and --boxes need a scope: --card or --all")
		}

		cfg, logger, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		logger.Debug("run started",
			"data_dir", cfg.DataDir,
			"predefined", runOpts.Predefined,
			"card", runOpts.Card,
			"all", runOpts.All,
			"images", runOpts.Images,
			"boxes", runOpts.Boxes)

		report := pipeline.Run(ctx, cfg, runOpts, logger)
		printReport(cmd.OutOrStdout(), report, cfg.Debug)

		// Failures are reported, not fatal
		return nil
	},
}

func init() {
	RootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := RootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/snaplabel/config.toml)")
	pf.String("data", "", "data directory (default ./data)")
	pf.String("base-url", "", "asset API base URL")
	pf.BoolP("debug", "d", false, "output logs to the console")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.Int("concurrency", 0, "maximum cards downloaded at once with --all (0 = no limit)")
	pf.Duration("timeout", 0, "HTTP request timeout (0 = none)")

	f := RootCmd.Flags()
	f.BoolVarP(&runOpts.Predefined, "predefined", "p", false, "create predefined_classes.txt for labelImg to consume")
	f.BoolVar(&runOpts.FromDisk, "from-disk", false, "build the class list from the card directories in the data directory")
	f.BoolVar(&runOpts.DatasetYAML, "dataset-yaml", false, "also write a YOLO dataset.yaml with the class list")
	f.StringVarP(&runOpts.Card, "card", "c", "", "get images for a single card, e.g. -c HighEvolutionary")
	f.BoolVarP(&runOpts.All, "all", "a", false, "get images for all currently released cards")
	f.BoolVarP(&runOpts.Images, "images", "i", false, "download artwork for the selected cards")
	f.BoolVarP(&runOpts.Boxes, "boxes", "b", false, "generate bounding box labels for the selected cards")

	RootCmd.AddCommand(validateCmd)
}

// setup loads the configuration and builds the run logger. cleanup closes the
// log file, if any.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog := logging.New(logging.Options{
		Debug:   cfg.Debug,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	cleanup := func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error closing log file: %v\n", err)
		}
	}

	return cfg, logger, cleanup, nil
}
