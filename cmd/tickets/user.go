package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	"github.com/helpdesk-kit/tickets/internal/service"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	userCmd.AddCommand(newUserAddCommand())
	return userCmd
}

func newUserAddCommand() *cobra.Command {
	var input service.RegisterInput
	var role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.Close()

			authService := service.NewAuthService(env.cfg.Auth, service.AuthDependencies{
				UserRepo: repository.NewUserRepository(env.db.DB),
				Logger:   env.logger,
			})

			input.Role = domain.Role(role)
			user, err := authService.Register(cmd.Context(), input)
			if err != nil {
				if domainErr := apperrors.ToDomainError(err); len(domainErr.Details) > 0 {
					return fmt.Errorf("%s: %v", domainErr.Message, domainErr.Details)
				}
				return err
			}
			cmd.Printf("created %s %q (id %d)\n", user.Role.Label(), user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "account username")
	cmd.Flags().StringVar(&input.Password, "password", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleRegularUser), "company or regular-user")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
