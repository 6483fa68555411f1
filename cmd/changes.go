package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/capscope/capscope/pkg/storage"
	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent merge changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openAuditDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		changes, err := db.ListRecentChanges(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Local().Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-7s  %s  %s <- %s\n", ts, c.ChangeType, c.CollegeKey, filepath.Base(c.TargetPath), filepath.Base(c.SourcePath))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}

// openAuditDB opens the database named by --dbpath or db.path. Unlike merge,
// readers refuse to create a fresh database.
func openAuditDB(cmd *cobra.Command) (*storage.DB, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = settings.DBPath
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}
	return storage.Open(dbPath, storage.DefaultDBTimeout)
}
