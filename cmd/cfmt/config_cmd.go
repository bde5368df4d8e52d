package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage cfmt configuration.

Global config: ~/.config/cfmt/config.toml (or $CFMT_CONFIG)
Local config:  .cfmt.toml or .cfmt.yaml (in a project directory)`,
		Example: `  cfmt config init          # Create default global config
  cfmt config init --local  # Create local project config
  cfmt config show          # Show effective config
  cfmt config path          # Print the global config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Long: `Create default config file.

Without flags, creates the global config.
With --local, creates .cfmt.toml in the current directory.`,
		Example: `  cfmt config init           # Create global config
  cfmt config init --local   # Create local project config
  cfmt config init -f        # Overwrite existing config
  cfmt config init -s        # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			content := config.DefaultConfig()
			if local {
				content = config.DefaultLocalConfig()
			}
			if stdout {
				out.Print(content)
				return nil
			}

			if local {
				path, err := initLocalConfig(force)
				if err != nil {
					return err
				}
				l.Printf("Created local config: %s\n", path)
				return nil
			}

			path, err := config.Init(configPath, force)
			if err != nil {
				return err
			}
			l.Printf("Created config: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")
	cmd.Flags().BoolVar(&local, "local", false, "Create .cfmt.toml in the current directory")

	return cmd
}

func initLocalConfig(force bool) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	path := filepath.Join(wd, config.LocalConfigFileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("local config already exists: " + path)
		}
	}
	if err := os.WriteFile(path, []byte(config.DefaultLocalConfig()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show the configuration in effect for the current directory,
with local overrides merged in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			cfg, err := effectiveConfig(ctx, "")
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(cfg)
			}

			wd, _ := os.Getwd()
			global := config.FromContext(ctx)
			if global.Path != "" {
				out.Printf("# Global config: %s\n", global.Path)
			} else {
				out.Println("# Global config: (defaults)")
			}
			if local := config.FindLocal(wd); local != "" {
				out.Printf("# Local config:  %s\n", local)
			}
			out.Println()

			encoded, err := cfg.Encode()
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out.Print(encoded)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the global config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			output.FromContext(cmd.Context()).Println(path)
			return nil
		},
	}
}
