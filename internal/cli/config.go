package cli

import (
	"fmt"
	"os"

	"github.com/iterate-binary-hack/submitdiff/internal/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage submitdiff configuration",
		Args:  noPositionalArgs,
	}
	cmd.AddCommand(a.configInitCmd())
	cmd.AddCommand(a.configSetCmd())
	cmd.AddCommand(a.configShowCmd())
	return cmd
}

func (a *app) resolveConfigPath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.ConfigPath()
}

func (a *app) configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  noPositionalArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolveConfigPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(a.stderr, "Config file already exists at %s\n", path)
				return nil
			}

			if err := config.Save(config.Default(), path); err != nil {
				return goerr.Wrap(err, "writing config")
			}

			fmt.Fprintf(a.stdout, "Config file created at %s\n", path)
			return nil
		},
	}
}

func (a *app) configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: contextLines, timeoutSeconds, retries, remote, includeMetadata, privacy.redactSecrets, log.level, log.format.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolveConfigPath()
			if err != nil {
				return err
			}

			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}

			if err := config.SetField(&cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Save(cfg, path); err != nil {
				return goerr.Wrap(err, "saving config")
			}

			fmt.Fprintf(a.stdout, "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  noPositionalArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.flags.configPath, buildOverrides(cmd.Flags()))
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return goerr.Wrap(err, "marshaling config")
			}

			fmt.Fprint(a.stdout, string(data))
			return nil
		},
	}
}
