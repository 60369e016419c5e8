package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/workpad/internal/credential"
	"github.com/nhle/workpad/internal/model"
)

func loginCmd(s *session) *cobra.Command {
	var key, url string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the API key in the system keyring",
		Long: `Store the API key in the system keyring. Without --key the key is read
from a masked prompt. --url also saves the store URL to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				err := huh.NewInput().
					Title("API key").
					EchoMode(huh.EchoModePassword).
					Value(&key).
					Run()
				if err != nil {
					return fmt.Errorf("reading API key: %w", err)
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("no API key given")
			}
			if err := credential.Set(credential.APIKey, key); err != nil {
				return err
			}

			if url != "" {
				cfg, err := model.LoadConfig(s.configPath)
				if err != nil {
					return err
				}
				cfg.Store.URL = strings.TrimRight(url, "/")
				if err := model.SaveConfig(s.configPath, cfg); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&url, "url", "", "store URL to save, e.g. https://xyz.supabase.co")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the API key from the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credential.Delete(credential.APIKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
			return nil
		},
	}
}
