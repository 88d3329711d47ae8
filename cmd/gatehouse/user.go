package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user directly to the user store",
	Long: `Add a user directly to the configured sqlite or postgres user store.

The password is read from --password, or prompted for interactively when
the flag is omitted. Existing users are never overwritten.

Examples:
  gatehouse user add alice
  gatehouse user add --password 'P@ssW0rd!' bob`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print a bcrypt hash for a password",
	Long: `Print a bcrypt hash suitable for the password_hash field of the
memory backend's users file or inline users config.`,
	Args: cobra.NoArgs,
	RunE: runUserHash,
}

var userPassword string

func init() {
	userAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "password (prompted when omitted)")
	userHashCmd.Flags().StringVarP(&userPassword, "password", "p", "", "password (prompted when omitted)")

	userCmd.AddCommand(userAddCmd, userHashCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Database.Type == "memory" {
		return errors.New("the memory user store cannot be modified from the command line; use 'gatehouse user hash' and edit the users file")
	}

	username := args[0]
	if !gatehouse.IsValidUsername(username) {
		return fmt.Errorf("invalid username %q", username)
	}

	password, err := readPassword(userPassword)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	users, closeUsers, err := openUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeUsers() }()

	hasher, err := gatehouse.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("create hasher: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = users.InsertIfAbsent(ctx, gatehouse.Identity{Username: username, PasswordHash: hash})
	if errors.Is(err, gatehouse.ErrConflict) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	slog.Info("user added", "username", username)
	return nil
}

func runUserHash(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	password, err := readPassword(userPassword)
	if err != nil {
		return err
	}

	hasher, err := gatehouse.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("create hasher: %w", err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readPassword returns flagValue, or prompts twice with masked input.
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	prompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			if len(input) > 72 {
				return errors.New("password must be at most 72 bytes")
			}
			return nil
		},
	}
	password, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}

	confirm := promptui.Prompt{Label: "Confirm password", Mask: '*'}
	again, err := confirm.Run()
	if err != nil {
		return "", promptError(err)
	}
	if again != password {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return errors.New("cancelled")
	}
	return err
}
