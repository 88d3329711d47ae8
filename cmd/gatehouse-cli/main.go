package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	username    string
	password    string
	token       string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:           "gatehouse-cli",
	Version:       version,
	Short:         "Client for the gatehouse file gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `gatehouse-cli - Client for the gatehouse file gateway

Credentials are resolved in this order (later wins):
  1. the selected profile in ~/.gatehouse/config.yaml (cached token)
  2. GATEHOUSE_ENDPOINT, GATEHOUSE_USERNAME, GATEHOUSE_PASSWORD, GATEHOUSE_TOKEN
  3. command-line flags

A bearer token is used when one is available. Otherwise the username and
password are sent as HTTP Basic credentials. Run 'gatehouse-cli login' to
cache a token in the current profile.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.gatehouse/config.yaml, env: GATEHOUSE_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (env: GATEHOUSE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: GATEHOUSE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "username (env: GATEHOUSE_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "password (env: GATEHOUSE_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (env: GATEHOUSE_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// exitError signals a non-zero exit after the failure was already reported.
type exitError struct{}

func (e *exitError) Error() string {
	return "one or more operations failed"
}

// getConfigPath returns the CLI config file path: --config, then
// GATEHOUSE_CLI_CONFIG, then the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// selectedProfile returns the profile name chosen by --profile or
// GATEHOUSE_PROFILE. Empty means the default profile.
func selectedProfile() string {
	if profileName != "" {
		return profileName
	}
	return clientcli.ProfileFromEnv()
}

// loadProfile loads the config file and the selected profile. A missing
// default config file is not an error; both return values are nil then.
func loadProfile() (*clientcli.ConfigFile, *clientcli.Profile, error) {
	path := getConfigPath()
	name := selectedProfile()

	file, err := clientcli.LoadConfigFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && cfgFile == "" && name == "" {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	p, err := file.GetProfile(name)
	if err != nil {
		if errors.Is(err, clientcli.ErrNoProfiles) && name == "" {
			return file, nil, nil
		}
		return nil, nil, err
	}
	return file, p, nil
}

// buildConfig merges the profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	_, p, err := loadProfile()
	if err != nil {
		return nil, err
	}

	profileCfg := clientcli.ConfigFromProfile(p)
	envCfg := clientcli.ConfigFromEnv()
	flagCfg := &clientcli.Config{
		Endpoint: endpoint,
		Username: username,
		Password: password,
		Token:    token,
	}

	// An explicit password means the caller wants Basic auth, not the
	// token cached in the profile.
	if flagCfg.Password != "" || envCfg.Password != "" {
		profileCfg.Token = ""
	}

	return clientcli.MergeConfig(profileCfg, envCfg, flagCfg), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a client that must carry credentials.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, fmt.Errorf("%w (run 'gatehouse-cli login' or pass --username/--password)", err)
	}
	return clientcli.New(cfg)
}

