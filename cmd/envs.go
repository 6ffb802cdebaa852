package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/api-health-checker/internal/resolver"
)

func newEnvsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List the environments that can be checked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			envs := resolver.Environments(a.doc)
			def := resolver.DefaultEnvironment(a.doc, envs)

			for _, env := range envs {
				marker := " "
				if env == def {
					marker = "*"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, env); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
