// billmgr loads bill records into the go-pokr database and inspects them
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-while/go-pokr/internal/config"
	"github.com/go-while/go-pokr/internal/database"
	"github.com/go-while/go-pokr/internal/logging"
	"github.com/go-while/go-pokr/internal/models"
)

var appVersion = "-unset-"

type rootOptions struct {
	configPath string
	dbPath     string
	forceJSON  bool
}

func main() {
	config.AppVersion = appVersion
	logging.SetDefault(logging.New(os.Stderr, "pokr-billmgr"))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:          "billmgr",
		Short:        "Import and inspect go-pokr bill records",
		Version:      appVersion,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database file, overrides the config")
	rootCmd.PersistentFlags().BoolVar(&opts.forceJSON, "json", false, "print JSON even on a terminal")

	rootCmd.AddCommand(importCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(summaryCmd(opts))
	rootCmd.AddCommand(migrationsCmd(opts))
	return rootCmd
}

func (o *rootOptions) openDB(ctx context.Context) (*database.Database, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return database.OpenDatabase(ctx, database.NewDBConfig(cfg))
}

// assemblyOrCurrent returns id unless it is zero
func assemblyOrCurrent(ctx context.Context, db *database.Database, id int64) (int64, error) {
	if id != 0 {
		return id, nil
	}
	return db.CurrentAssemblyID(ctx)
}

func importCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Upsert assemblies, statuses and bills from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batch, err := readImportFile(args[0])
			if err != nil {
				return err
			}
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Import(ctx, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d assemblies, %d statuses, %d bills\n",
				res.Assemblies, res.Statuses, res.Bills)
			return nil
		},
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var (
		assemblyID int64
		statusID   int64
		start      int
		length     int
		sortBy     string
		desc       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one listing page, ordered like the web grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, err := buildQuery(sortBy, desc, start, length)
			if err != nil {
				return err
			}
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if q.AssemblyID, err = assemblyOrCurrent(ctx, db, assemblyID); err != nil {
				return err
			}
			q.StatusID = statusID
			listing, err := database.PageListing(ctx, db, q)
			if err != nil {
				return err
			}
			return printListing(cmd.OutOrStdout(), opts.forceJSON, q, listing)
		},
	}
	cmd.Flags().Int64Var(&assemblyID, "assembly", 0, "assembly id (default: current)")
	cmd.Flags().Int64Var(&statusID, "status", 0, "only bills in this status")
	cmd.Flags().IntVar(&start, "start", 0, "first row")
	cmd.Flags().IntVar(&length, "length", config.DefaultPageLength, "rows per page")
	cmd.Flags().StringVar(&sortBy, "sort", "", "proposed_date, name, sponsor or status (default: proposed_date desc)")
	cmd.Flags().BoolVar(&desc, "desc", false, "descending order for --sort")
	return cmd
}

// buildQuery validates the list flags the way the web listing validates its parameters
func buildQuery(sortBy string, desc bool, start, length int) (models.BillQuery, error) {
	q := models.BillQuery{Sort: models.DefaultSort, Offset: start, Limit: length}
	if start < 0 {
		return q, fmt.Errorf("%w: --start must not be negative", models.ErrMalformedRequest)
	}
	if length <= 0 {
		return q, fmt.Errorf("%w: --length must be positive", models.ErrMalformedRequest)
	}
	if sortBy != "" {
		col, err := models.SortColumnByName(sortBy)
		if err != nil {
			return q, err
		}
		q.Sort = models.SortSpec{Column: col, Direction: models.SortAsc}
		if desc {
			q.Sort.Direction = models.SortDesc
		}
	}
	return q, nil
}

func summaryCmd(opts *rootOptions) *cobra.Command {
	var assemblyID int64
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the bill count per status of an assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			id, err := assemblyOrCurrent(ctx, db, assemblyID)
			if err != nil {
				return err
			}
			counts, err := database.StatusSummary(ctx, db, id)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), opts.forceJSON, id, counts)
		},
	}
	cmd.Flags().Int64Var(&assemblyID, "assembly", 0, "assembly id (default: current)")
	return cmd
}

func migrationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrations",
		Short: "Apply pending schema migrations and list the applied ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := opts.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := db.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			return printMigrations(cmd.OutOrStdout(), applied)
		},
	}
}
