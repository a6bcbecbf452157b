package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Read a password (PORTFOLIO_PASSWORD, stdin or an interactive prompt) and
print its bcrypt hash for the ADMIN_PASSWORD_HASH environment variable.`,
	Args: cobra.NoArgs,
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
	hashPasswordCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	hashPasswordCmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := readPassword(mustGetBool(cmd, "password-stdin"))
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), mustGetInt(cmd, "cost"))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Println(string(hash))
	return nil
}
