package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvoss/catalog/cmd/cli/config"
	"github.com/dvoss/catalog/internal/session"
)

// InitAuth registers the login and logout commands on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd())
}

// loginCmd authenticates against the web login form and stores the session
// token locally. The same token works as a Bearer header on the API.
func loginCmd() *cobra.Command {
	var username string
	var password string
	var register bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the catalog API",
		Long:  "Authenticate with the catalog server and store the session token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			path := "/login"
			if register {
				path = "/register"
			}

			token, err := obtainSession(path, username, password)
			if err != nil {
				return err
			}
			if err := config.SaveToken(token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Println("Login successful. Token stored locally.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().BoolVar(&register, "register", false, "Register the account before logging in")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

// obtainSession posts the credentials to the given form endpoint and lifts
// the session token out of the Set-Cookie header. The server answers a
// failed login with a re-rendered form (200), not an error status, so the
// absence of the cookie is the failure signal.
func obtainSession(path, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Post(config.APIURL()+path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("authentication failed")
}
