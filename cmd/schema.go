package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Malumbo21/askdb/internal/database"
	"github.com/Malumbo21/askdb/internal/errors"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [database]",
	Short: "Show the introspected schema of the configured databases",
	Long: `Connect to every configured database and print its tables, columns
and relationships. With an argument, only that database is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfgs := appConfig.Databases
	if len(args) == 1 {
		cfgs = nil

		for _, db := range appConfig.Databases {
			if db.ID == args[0] {
				cfgs = append(cfgs, db)
			}
		}

		if len(cfgs) == 0 {
			return errors.Newf(errors.ErrTypeConnectionNotFound,
				"no configured database named %q", args[0])
		}
	}

	if len(cfgs) == 0 {
		return errors.New(errors.ErrTypeConfig, "no databases configured")
	}

	registry, err := database.OpenAll(ctx, cfgs)
	if err != nil {
		return err
	}
	defer registry.Close()

	merged, err := registry.FetchSchemas(ctx)
	if err != nil {
		return err
	}

	for i, id := range merged.Order {
		if i > 0 {
			fmt.Println()
		}

		fmt.Printf("=== Database: %s ===\n\n", id)
		fmt.Println(merged.Schemas[id].Describe())
	}

	return nil
}
