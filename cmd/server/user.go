package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/watchtower-api/internal/services"
)

var (
	userName      string
	userPassword  string
	userSuperuser bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.auth.Signup(cmd.Context(), services.SignupInput{
			Username:    userName,
			Password:    userPassword,
			IsSuperuser: userSuperuser,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s created with ID %d\n", user.Username, user.ID)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user, their tokens and watch entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		user, err := a.auth.GetUserByUsername(ctx, userName)
		if err != nil {
			return fmt.Errorf("finding user %q: %w", userName, err)
		}
		if err := a.auth.DeleteUser(ctx, user.ID); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", user.Username)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "username", "", "username")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password")
	userCreateCmd.Flags().BoolVar(&userSuperuser, "superuser", false, "grant superuser")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userDeleteCmd.Flags().StringVar(&userName, "username", "", "username")
	_ = userDeleteCmd.MarkFlagRequired("username")

	userCmd.AddCommand(userCreateCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
