package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhaobenny/codextop/cli/internal/config"
)

var (
	configShow bool
	configSet  []string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration file",
	Long: fmt.Sprintf(`Show or change ~/.codextop.yaml (or $CODEXTOP_CONFIG).
Command line flags override the values stored here.

Keys: %s`, strings.Join(config.Keys(), ", ")),
	Example: `  codextop config --show
  codextop config --set timezone=Europe/Berlin --set days=30
  codextop config --set pricing_file=`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(configSet) == 0 {
			if !configShow {
				return cmd.Help()
			}
			return showConfig(w, cfg)
		}

		updated := *cfg
		if err := applySettings(&updated, configSet); err != nil {
			return err
		}
		if err := config.Save(&updated); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintln(w, "Configuration saved.")
		if configShow {
			return showConfig(w, &updated)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show the current configuration")
	configCmd.Flags().StringArrayVar(&configSet, "set", nil, "Set a key (key=value, empty value clears it)")
	rootCmd.AddCommand(configCmd)
}

// applySettings applies key=value assignments to c
func applySettings(c *config.Config, assignments []string) error {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid setting %q, use key=value", a)
		}
		if err := c.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}

func showConfig(w io.Writer, c *config.Config) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Config file: %s\n", path)

	width := 0
	for _, key := range config.Keys() {
		width = max(width, len(key))
	}
	for _, key := range config.Keys() {
		value, err := c.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(default)"
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, key, value)
	}
	return nil
}
