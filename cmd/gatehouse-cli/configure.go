package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sagarc03/gatehouse/clientcli"
	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

A profile records a gatehouse endpoint, the username to log in with, and
the access token cached by 'gatehouse-cli login'. Select one with
--profile or GATEHOUSE_PROFILE; otherwise the default profile is used.

Profiles are stored in ~/.gatehouse/config.yaml unless --config or
GATEHOUSE_CLI_CONFIG points elsewhere.`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Long:  "List all configured profiles. The default profile is marked with an asterisk (*).",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add a profile interactively, or update one that already exists.

You will be asked for the endpoint URL and username. The endpoint is
checked with GET /healthz before saving. Passwords are never stored; run
'gatehouse-cli login' afterwards to cache a token.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long: `Show one profile, or the default profile when no name is given.

Cached tokens are masked; use --show-secrets to print them in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

var showSecrets bool

func init() {
	configureCmd.AddCommand(configureListCmd, configureAddCmd, configureRemoveCmd, configureSetDefaultCmd, configureShowCmd)

	for _, c := range []*cobra.Command{configureListCmd, configureShowCmd} {
		c.Flags().BoolVar(&showSecrets, "show-secrets", false, "show cached tokens unmasked")
	}
}

// readConfigFile loads the CLI config file. With allowMissing, a file that
// does not exist yet is returned as an empty config.
func readConfigFile(allowMissing bool) (*clientcli.ConfigFile, error) {
	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		return cfg, nil
	case allowMissing && errors.Is(err, os.ErrNotExist):
		return &clientcli.ConfigFile{}, nil
	default:
		return nil, fmt.Errorf("load config: %w", err)
	}
}

func writeConfigFile(cfg *clientcli.ConfigFile) error {
	if err := cfg.Save(getConfigPath()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	cfg, err := readConfigFile(true)
	if err != nil {
		return err
	}

	def, err := cfg.GetDefaultProfile()
	if errors.Is(err, clientcli.ErrNoProfiles) {
		fmt.Println("No profiles configured. Run 'gatehouse-cli configure add <name>' to create one.")
		return nil
	}
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileList(os.Stdout, cfg.Profiles, def.Name, showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := readConfigFile(true)
	if err != nil {
		return err
	}

	existing, _ := cfg.GetProfile(name)
	if existing != nil && !confirm(fmt.Sprintf("Profile '%s' already exists. Update it", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	endpointPrompt := promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  clientcli.DefaultEndpoint,
		Validate: validateEndpoint,
	}
	userPrompt := promptui.Prompt{Label: "Username"}
	if existing != nil {
		endpointPrompt.Default = existing.Endpoint
		userPrompt.Default = existing.Username
	}

	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return promptError(err)
	}
	user, err := userPrompt.Run()
	if err != nil {
		return promptError(err)
	}

	p := clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(endpointURL, "/"),
		Username: strings.TrimSpace(user),
	}

	switch {
	case len(cfg.Profiles) == 0:
		p.Default = true
	case existing != nil && existing.Default:
		p.Default = true
	default:
		p.Default = confirm("Set as default profile")
	}

	// The cached token is only kept when it was issued by the same server
	// for the same user.
	if existing != nil && existing.Endpoint == p.Endpoint && existing.Username == p.Username {
		p.Token, p.TokenExpiresAt = existing.Token, existing.TokenExpiresAt
	}

	fmt.Print("Testing connection... ")
	if connErr := testServerConnection(cmd.Context(), p.Endpoint); connErr != nil {
		fmt.Printf("FAILED (%v)\n", connErr)
		if !confirm("Save profile anyway") {
			fmt.Println("Cancelled.")
			return nil
		}
	} else {
		fmt.Println("OK")
	}

	if existing != nil {
		err = cfg.UpdateProfile(p)
	} else {
		err = cfg.AddProfile(p)
	}
	if err != nil {
		return err
	}
	if p.Default {
		if err := cfg.SetDefault(p.Name); err != nil {
			return err
		}
	}

	if err := writeConfigFile(cfg); err != nil {
		return err
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
	}
	fmt.Printf("Profile '%s' %s.\n", name, verb)
	if p.Default {
		fmt.Println("Set as default profile.")
	}
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := readConfigFile(false)
	if err != nil {
		return err
	}
	if _, err := cfg.GetProfile(name); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return err
	}
	if err := writeConfigFile(cfg); err != nil {
		return err
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	cfg, err := readConfigFile(false)
	if err != nil {
		return err
	}
	if err := cfg.SetDefault(args[0]); err != nil {
		return err
	}
	if err := writeConfigFile(cfg); err != nil {
		return err
	}

	fmt.Printf("Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	cfg, err := readConfigFile(false)
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	def, _ := cfg.GetDefaultProfile()
	isDefault := def != nil && def.Name == p.Name
	return getFormatter().FormatProfileShow(os.Stdout, *p, isDefault, showSecrets)
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// confirm asks a yes/no question. Anything but an explicit yes is a no.
func confirm(label string) bool {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}

// testServerConnection checks that the endpoint answers GET /healthz.
func testServerConnection(ctx context.Context, endpointURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpointURL}, clientcli.WithTimeout(5*time.Second))
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}
