package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the HabitKeeper server",
	Long: `Authenticates against the server and stores the token locally.

Right after login the client pushes everything it has, pulls the
complete remote set and reconciles settings, so a fresh device ends
up with the full account state.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		fmt.Print("Login: ")
		var login string
		_, _ = fmt.Scanln(&login)

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		fmt.Println("Authenticating and running initial sync...")
		if err := app.Login(ctx, login, string(password)); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Println("Logged in, local data is in sync.")
		return nil
	},
}
