package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nexusforge/console/pkg/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the registry",
	Long: `Log in with email and password. The session token is stored in the
configured session backend and reused by later commands.

Missing values are prompted for; the password is never echoed.`,
	RunE: withApp(false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		email, err := promptIfEmpty(email, "Email: ")
		if err != nil {
			return err
		}
		if password == "" {
			if password, err = promptPassword("Password: "); err != nil {
				return err
			}
		}

		_, err = a.auth.Login(ctx, email, password)
		return err
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	RunE: withApp(false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		name, err := promptIfEmpty(name, "Name: ")
		if err != nil {
			return err
		}
		if email, err = promptIfEmpty(email, "Email: "); err != nil {
			return err
		}
		if password == "" {
			if password, err = promptPassword("Password: "); err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != password {
				return errors.New("passwords do not match")
			}
		}

		_, err = a.auth.Signup(ctx, name, email, password)
		return err
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: withApp(false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return a.auth.Logout(ctx)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: withApp(false, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		s, ok := a.sessions.Get()
		if !ok {
			printInfo("Guest (not logged in)")
			return nil
		}

		printInfo("Name:    %s", orDash(s.User.Name))
		printInfo("Email:   %s", orDash(s.User.Email))

		claims, err := session.Claims(s.Token)
		if err != nil {
			printWarning("Token is not a readable JWT: %v", err)
			return nil
		}
		if claims.Subject != "" {
			printInfo("Subject: %s", claims.Subject)
		}
		printInfo("Expires: %s", formatExpiry(claims.ExpiresAt))
		return nil
	}),
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")

	signupCmd.Flags().String("name", "", "Display name")
	signupCmd.Flags().String("email", "", "Account email")
	signupCmd.Flags().String("password", "", "Account password (prompted when omitted)")
}

var stdin = bufio.NewReader(os.Stdin)

func promptIfEmpty(value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptIfEmpty("", label)
	}
	fmt.Print(label)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
