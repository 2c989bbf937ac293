package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KafClaw/lexteams/internal/config"
	"github.com/KafClaw/lexteams/internal/secrets"
)

var (
	configSealIn  string
	configSealOut string
	configPutIn   string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and prepare the bridge's app identity secret",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the configured secret and report what it contains (masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		env, err := loadEnv()
		if err != nil {
			return err
		}
		printHeader(out, "🔎 lexteams Config")
		fmt.Fprintf(out, "Secret backend: %s\n", env.SecretBackend)
		fmt.Fprintf(out, "Secret id:      %s %s\n", check(env.SecretID != ""), env.SecretID)
		fmt.Fprintf(out, "Lex bot:        %s %s/%s\n", check(env.HasLexBot()), env.LexBotName, env.LexBotAlias)
		fmt.Fprintf(out, "Token URL:      %s\n", env.TokenURL)

		store, err := newSecretStore(cmd.Context(), env, nil)
		if err != nil {
			return err
		}
		cfg, err := config.NewLoader(store, env.SecretID, false).Load(cmd.Context())
		if err != nil {
			fmt.Fprintf(out, "App config:     %s %v\n", check(false), err)
			return err
		}
		fmt.Fprintf(out, "App config:     %s\n", check(true))
		fmt.Fprintf(out, "  ms_app_id:        %s\n", config.Mask(cfg.AppID))
		fmt.Fprintf(out, "  client_secret:    %s\n", config.Mask(cfg.AppSecret))
		fmt.Fprintf(out, "  valid_tenant_ids: %s %d\n", check(len(cfg.AllowedTenantIDs) > 0), len(cfg.AllowedTenantIDs))
		return nil
	},
}

var configKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new key for LEXTEAMS_SECRET_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secrets.NewKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var configSealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt an app config file for the file secret backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, err := readAppConfigFile(configSealIn)
		if err != nil {
			return err
		}
		env, err := loadEnv()
		if err != nil {
			return err
		}
		if strings.TrimSpace(env.SecretKey) == "" {
			return fmt.Errorf("LEXTEAMS_SECRET_KEY is required to seal (generate one with `lexteams config keygen`)")
		}
		key, err := secrets.DecodeKey(env.SecretKey)
		if err != nil {
			return fmt.Errorf("invalid LEXTEAMS_SECRET_KEY: %w", err)
		}
		sealed, err := secrets.SealBlob(plain, key)
		if err != nil {
			return err
		}
		if strings.TrimSpace(configSealOut) == "" {
			_, err = cmd.OutOrStdout().Write(sealed)
			return err
		}
		return os.WriteFile(configSealOut, sealed, 0o600)
	},
}

var configPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Store an app config file in the OS keyring under CONFIG",
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, err := readAppConfigFile(configPutIn)
		if err != nil {
			return err
		}
		env, err := loadEnv()
		if err != nil {
			return err
		}
		if env.SecretID == "" {
			return fmt.Errorf("CONFIG must name the keyring entry")
		}
		if err := secrets.NewKeyringStore(secrets.KeyringService).PutSecret(env.SecretID, string(plain)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s stored %s in keyring service %q\n", check(true), env.SecretID, secrets.KeyringService)
		return nil
	},
}

// readAppConfigFile reads path and validates it as an app config.
func readAppConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read app config: %w", err)
	}
	if _, err := config.ParseAppConfig(string(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func init() {
	configSealCmd.Flags().StringVar(&configSealIn, "in", "", "Plain app config JSON file")
	configSealCmd.Flags().StringVar(&configSealOut, "out", "", "Write the sealed blob here instead of stdout")
	_ = configSealCmd.MarkFlagRequired("in")
	configPutCmd.Flags().StringVar(&configPutIn, "in", "", "Plain app config JSON file")
	_ = configPutCmd.MarkFlagRequired("in")

	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configKeygenCmd)
	configCmd.AddCommand(configSealCmd)
	configCmd.AddCommand(configPutCmd)
}
