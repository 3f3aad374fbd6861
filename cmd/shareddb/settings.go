package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kubev2v/shareddb/internal/config"
	"github.com/kubev2v/shareddb/internal/settings"
)

func newSettingsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Print the database settings after delegation is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(cmd, v)
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), cfg)
		},
	}
}

func printSettings(w io.Writer, cfg *config.Configuration) error {
	patched := settings.Patch(cfg.Databases, cfg.Delegation.Whitelist, cfg.Delegation.Blacklist)

	alias := color.New(color.Bold).SprintFunc()
	shared := color.New(color.FgGreen).SprintFunc()
	direct := color.New(color.FgYellow).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	for _, name := range cfg.Aliases() {
		db := patched[name]
		driver, delegated, err := settings.Resolve(name, db)
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(w, "%s\t%s\n", alias(name), failed(err.Error()))
		case delegated:
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", alias(name), shared(db.Engine), driver)
		default:
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", alias(name), direct("direct"), driver)
		}
	}
	return nil
}
