package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func addConfig(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (file plus overrides).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := *a.cfg
			if shown.BasicAuth != nil {
				ba := *shown.BasicAuth
				ba.Password = "(redacted)"
				shown.BasicAuth = &ba
			}
			out, err := yaml.Marshal(&shown)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
