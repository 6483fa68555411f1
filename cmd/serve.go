package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/capscope/capscope/internal/server"
	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/intake"
	"github.com/capscope/capscope/pkg/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve intake queries and merge history over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := settingsFromConfig(Settings.validateIntake, Settings.validateAnalytics, Settings.validateServer)
		if err != nil {
			return err
		}

		listenAddr, _ := cmd.Flags().GetString("listen")
		if !cmd.Flags().Changed("listen") {
			listenAddr = settings.ServerListen
		}
		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = settings.IntakeSource
		}
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = settings.DBPath
		}

		records, err := intake.Load(context.Background(), source, nil)
		if err != nil {
			return err
		}

		var db *storage.DB
		if _, err := os.Stat(dbPath); err == nil {
			db, err = storage.Open(dbPath, storage.DefaultDBTimeout)
			if err != nil {
				return fmt.Errorf("opening audit database: %w", err)
			}
			defer db.Close()
		} else {
			utils.Log.Infof("No audit database at %s, merge history endpoints will be empty", dbPath)
		}

		srv := server.New(records, db, newTracker(settings), settings.ServerUsername, settings.ServerPassword)
		return srv.Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("source", "", "Intake CSV file or URL (default: intake.source from config)")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config)")
}
