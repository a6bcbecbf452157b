package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kozaktomas/portfolio/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the site admin",
	Long: `Log in to the portfolio server and store the session for later commands.

The password is read from PORTFOLIO_PASSWORD, from stdin with --password-stdin,
or prompted for interactively.

Example:
  portfolio login --email admin@example.com
  echo "$PASSWORD" | portfolio login --email admin@example.com --password-stdin`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the stored admin session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().String("email", os.Getenv("ADMIN_EMAIL"), "Admin email (env ADMIN_EMAIL)")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
}

func readPassword(fromStdin bool) (string, error) {
	if pw := os.Getenv("PORTFOLIO_PASSWORD"); pw != "" && !fromStdin {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if fromStdin || !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := strings.TrimSpace(mustGetString(cmd, "email"))
	if email == "" {
		return errors.New("--email is required")
	}
	password, err := readPassword(mustGetBool(cmd, "password-stdin"))
	if err != nil {
		return err
	}

	server := resolveServerURL()
	c, err := client.New(server)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	expiresAt, err := c.Login(ctx, email, password)
	if err != nil {
		return err
	}

	path, err := client.DefaultSessionPath()
	if err != nil {
		return err
	}
	if err := client.SaveSession(path, client.SavedSession{
		Server:    server,
		SessionID: c.Token(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	successColor.Printf("Logged in to %s", server)
	fmt.Printf(" (session expires %s)\n", expiresAt.Local().Format(time.DateTime))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	path, err := client.DefaultSessionPath()
	if err != nil {
		return err
	}

	c, err := newAPIClient(false)
	if err != nil {
		return err
	}
	if c.Token() != "" {
		if err := c.Logout(cmd.Context()); err != nil {
			warnColor.Printf("Warning: server logout failed: %v\n", err)
		}
	}

	if err := client.RemoveSession(path); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
