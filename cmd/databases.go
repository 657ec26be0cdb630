package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Malumbo21/askdb/internal/database"
	"github.com/Malumbo21/askdb/internal/errors"
)

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List configured databases and check connectivity",
	RunE:  runDatabases,
}

func runDatabases(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if len(appConfig.Databases) == 0 {
		return errors.New(errors.ErrTypeConfig, "no databases configured").
			WithSuggestion("add databases to the config file or set ASKDB_DB_DRIVER and ASKDB_DB_DSN")
	}

	fmt.Printf("Configured databases (%d):\n\n", len(appConfig.Databases))

	for _, db := range appConfig.Databases {
		status := "ok"

		conn, err := database.Open(ctx, db.ID, db.Driver, db.DSN)
		if err != nil {
			status = fmt.Sprintf("unreachable: %v", err)
		} else {
			conn.Close()
		}

		fmt.Printf("  %s (%s): %s\n", db.ID, db.Driver, status)
	}

	return nil
}
