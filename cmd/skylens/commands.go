package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skylens/go-api-client/apiclient"
	"github.com/skylens/go-api-client/sessions"
	"github.com/skylens/go-api-client/users"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "skylens",
		Short:         "SkyLens API client",
		Long:          "Command-line client for the SkyLens aerial photography API with managed session lifecycle.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newStatusCmd(a),
		newWatchCmd(a),
	)

	return root
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = prompt("Email: ")
			}
			if password == "" {
				password = prompt("Password: ")
			}

			result, err := a.service.Login(cmd.Context(), apiclient.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			displayAppname(a.cfg.GetAppName())
			fmt.Printf("Logged in as %s\n", displayName(result.User, email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Logout(cmd.Context()); err != nil {
				// Local state is already cleared at this point.
				fmt.Printf("Logged out locally; server logout failed: %s\n", err)
				return nil
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.service.InitializeAuth(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Println("Not logged in")
				return nil
			}

			user := result.User
			fmt.Printf("%s <%s>\n", user.FullName(), user.Email)
			if len(user.Roles) > 0 {
				roles := make([]string, len(user.Roles))
				for i, r := range user.Roles {
					roles[i] = string(r)
				}
				fmt.Printf("Roles: %s\n", strings.Join(roles, ", "))
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.service.InitializeAuth(cmd.Context()); err != nil {
				return err
			}

			session := a.service.CurrentSession()
			if !session.IsAuthenticated {
				fmt.Println("Session: unauthenticated")
				return nil
			}
			fmt.Println("Session: authenticated")
			return nil
		},
	}
}

// newWatchCmd holds an authenticated session open and reports every session
// mutation, including proactive token rotations, until interrupted.
func newWatchCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Hold a session open and report token rotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = prompt("Email: ")
			}
			if password == "" {
				password = prompt("Password: ")
			}

			unsubscribe := a.store.Subscribe(func(session sessions.Session) {
				if session.IsAuthenticated {
					fmt.Printf("session updated: token rotated (%d chars)\n", len(session.AccessToken))
				} else {
					fmt.Println("session updated: unauthenticated")
				}
			})
			defer unsubscribe()

			result, err := a.service.Login(cmd.Context(), apiclient.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Watching session for %s, Ctrl-C to stop\n", displayName(result.User, email))

			waitForStopSignal()

			return a.service.Logout(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")

	return cmd
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayName(user *users.User, fallback string) string {
	if user == nil {
		return fallback
	}
	if name := user.FullName(); name != "" {
		return name
	}
	return user.Email
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}
