package auth

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/crucial707/blog/cmd/cli/client"
	"github.com/crucial707/blog/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers login, logout and register on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), registerCmd())
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the blog admin",
		Long:  "Authenticate against the blog and store the session token for subsequent commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(cmd, &creds); err != nil {
				return err
			}

			var loginResp struct {
				Token string `json:"token"`
			}
			if err := client.Call(http.MethodPost, "/admin", creds, &loginResp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if loginResp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}

			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (prompted when omitted)")

	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an admin account",
		Long:  "Create an admin account. Servers that require a session for registration use the stored token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(cmd, &creds); err != nil {
				return err
			}

			var out struct {
				User struct {
					ID       int    `json:"id"`
					Username string `json:"username"`
				} `json:"user"`
			}
			if err := client.Call(http.MethodPost, "/register", creds, &out); err != nil {
				return fmt.Errorf("failed to register user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %q registered (id %d). You can now login.\n", out.User.Username, out.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Username, "username", "", "Username to create")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (prompted when omitted)")

	return cmd
}

// promptMissing reads any credential not given as a flag from the command's input.
func promptMissing(cmd *cobra.Command, creds *credentials) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	if creds.Username == "" {
		v, err := prompt(in, out, "Username: ")
		if err != nil {
			return err
		}
		creds.Username = v
	}
	if creds.Password == "" {
		v, err := prompt(in, out, "Password: ")
		if err != nil {
			return err
		}
		creds.Password = v
	}
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
