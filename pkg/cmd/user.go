package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/soundvault/pkg/app"
	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/users"
)

var (
	userInput users.CreateInput

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "user management",
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), configs.GetConfig(), app.Options{})
			if err != nil {
				return err
			}

			defer func() { _ = a.Close() }()

			if userInput.Password2 == "" {
				userInput.Password2 = userInput.Password
			}

			u, err := a.Handlers.Users.Create(cmd.Context(), userInput)
			if err != nil {
				if ve, ok := users.AsValidation(err); ok {
					for _, fe := range ve.Errors {
						fmt.Fprintln(cmd.ErrOrStderr(), " - "+fe.Code)
					}

					return errors.New("invalid user")
				}

				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", u.ID, u.Username)

			return nil
		},
	}
)

func registerUserCommands() {
	f := userCreateCmd.Flags()
	f.StringVar(&userInput.Username, "username", "", "username")
	f.StringVar(&userInput.Email, "email", "", "email")
	f.StringVar(&userInput.Password, "password", "", "password")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
