package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/arcanaland/snaplabel/internal/config"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the snaplabel configuration",
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file and create the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = config.GetConfigFilePath()
		}

		created, err := config.WriteDefault(configPath)
		if err != nil {
			return fmt.Errorf("error initializing config: %v", err)
		}
		if created {
			fmt.Println("Config file initialized at:", configPath)
		} else {
			fmt.Println("Config file already exists at:", configPath)
		}

		cfg, _, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("error creating data directory: %v", err)
		}
		fmt.Println("Data directory ready at:", cfg.DataDir)
		return nil
	},
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, cleanup, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
