package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/admin"
	"github.com/spf13/cobra"
)

// adminCmd represents the admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Authenticate against the stats API",
}

var adminLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the admin token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("CAPSCOPE_ADMIN_PASSWORD")
		}
		if password == "" {
			return errors.New("no password given: use --password or CAPSCOPE_ADMIN_PASSWORD")
		}

		token, err := admin.NewClient(settings.AdminEndpoint).Login(context.Background(), username, password)
		if err != nil {
			return err
		}

		tf := admin.TokenFile{Path: settings.AdminTokenFile}
		if err := tf.Save(token); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		utils.Log.Debugf("Admin token stored at %s", tf.Path)
		fmt.Printf("Logged in as %s\n", username)
		return nil
	},
}

var adminLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored admin token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := (admin.TokenFile{Path: settings.AdminTokenFile}).Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminLoginCmd)
	adminCmd.AddCommand(adminLogoutCmd)

	adminLoginCmd.Flags().StringP("username", "u", "", "Admin username")
	adminLoginCmd.Flags().StringP("password", "p", "", "Admin password (default: $CAPSCOPE_ADMIN_PASSWORD)")
	adminLoginCmd.MarkFlagRequired("username")
}
