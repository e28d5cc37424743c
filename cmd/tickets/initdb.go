package main

import (
	"github.com/spf13/cobra"
)

func newInitDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.Close()

			env.logger.Info("database initialized")
			cmd.Println("database initialized")
			return nil
		},
	}
}
