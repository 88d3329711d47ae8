package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an access token and cache it in the profile",
	Long: `Exchange a username and password for a short-lived access token.

The token and its expiry are saved in the selected profile, so later
commands authenticate with it until it expires. The password itself is
never written to disk.

Examples:
  gatehouse-cli login
  gatehouse-cli --profile prod login --username admin
  GATEHOUSE_PASSWORD=secret gatehouse-cli login -u admin --json`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user behind the current credentials",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a new user on the server",
	Long: `Create a new user. Requires valid credentials of an existing user.

The new user's password is read from --new-password or prompted for.

Examples:
  gatehouse-cli register bob
  gatehouse-cli register bob --new-password 'hunter2'`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var newPassword string

func init() {
	registerCmd.Flags().StringVar(&newPassword, "new-password", "", "password for the new user (prompted if empty)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	file, p, err := loadProfile()
	if err != nil {
		return err
	}

	profileCfg := clientcli.ConfigFromProfile(p)
	cfg := clientcli.MergeConfig(profileCfg, clientcli.ConfigFromEnv(), &clientcli.Config{
		Endpoint: endpoint,
		Username: username,
		Password: password,
	})

	if cfg.Username == "" {
		cfg.Username, err = prompt("Username", false)
		if err != nil {
			return err
		}
	}
	if cfg.Password == "" {
		cfg.Password, err = prompt("Password", true)
		if err != nil {
			return err
		}
	}

	client, err := clientcli.New(&clientcli.Config{Endpoint: cfg.Endpoint})
	if err != nil {
		return err
	}

	tok, err := client.Login(cmd.Context(), cfg.Username, cfg.Password)
	if err != nil {
		if errors.Is(err, clientcli.ErrUnauthorized) {
			return errors.New("login failed: invalid credentials")
		}
		return err
	}

	if file != nil && p != nil {
		p.Username = cfg.Username
		p.Token = tok.AccessToken
		p.TokenExpiresAt = tok.ExpiresAt
		if err := file.Save(getConfigPath()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	} else if !jsonOutput && !quiet {
		_, _ = fmt.Fprintln(os.Stderr, "No profile configured; token not cached. Run 'gatehouse-cli configure add <name>' to create one.")
	}

	return getFormatter().FormatLogin(os.Stdout, cfg.Username, tok)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	identity, err := client.Whoami(cmd.Context())
	if err != nil {
		return err
	}
	return getFormatter().FormatWhoami(os.Stdout, identity)
}

func runRegister(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])

	pw := newPassword
	if pw == "" {
		var err error
		pw, err = promptNewPassword()
		if err != nil {
			return err
		}
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Register(cmd.Context(), name, pw); err != nil {
		if errors.Is(err, clientcli.ErrConflict) {
			return fmt.Errorf("user %q already exists", name)
		}
		return err
	}
	return getFormatter().FormatRegister(os.Stdout, name)
}

// prompt reads a single value from the terminal.
func prompt(label string, masked bool) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if input == "" {
				return fmt.Errorf("%s is required", strings.ToLower(label))
			}
			return nil
		},
	}
	if masked {
		p.Mask = '*'
	}
	value, err := p.Run()
	if err != nil {
		return "", promptError(err)
	}
	return value, nil
}

func promptNewPassword() (string, error) {
	pw, err := prompt("New password", true)
	if err != nil {
		return "", err
	}

	confirm := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
		Validate: func(input string) error {
			if input != pw {
				return errors.New("passwords do not match")
			}
			return nil
		},
	}
	if _, err := confirm.Run(); err != nil {
		return "", promptError(err)
	}
	return pw, nil
}

// errCancelled is returned when the user aborts an interactive prompt.
var errCancelled = errors.New("cancelled")

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrEOF) {
		return errCancelled
	}
	return fmt.Errorf("prompt: %w", err)
}
