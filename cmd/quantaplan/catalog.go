package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/explain"
	"github.com/dshills/quantaplan/internal/sql/planner"
)

func newCatalogCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and populate the table catalog.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "load <ddl-file>...",
			Short: "Apply CREATE TABLE and DROP TABLE statements to the catalog.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withCatalog(cmd, func(ctx context.Context, cat catalog.Catalog) error {
					w, err := writable(cat, a.cfg.Catalog.Backend)
					if err != nil {
						return err
					}
					total := 0
					for _, path := range args {
						n, err := loadDDLFile(ctx, w, path, a.cfg.Planner.DefaultSchema)
						if err != nil {
							return err
						}
						total += n
					}
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", total)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list [schema]",
			Short: "Print the definition of every table in a schema.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				schemaName := a.cfg.Planner.DefaultSchema
				if len(args) == 1 {
					schemaName = args[0]
				}
				return a.withCatalog(cmd, func(ctx context.Context, cat catalog.Catalog) error {
					tables, err := cat.ListTables(ctx, schemaName)
					if err != nil {
						return err
					}
					for _, t := range tables {
						fmt.Fprintln(cmd.OutOrStdout(), t.String())
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "describe <table>",
			Short: "Print the columns a table contributes to a plan.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				schemaName, tableName := splitName(args[0])
				return a.withCatalog(cmd, func(ctx context.Context, cat catalog.Catalog) error {
					registry := planner.NewRegistry(cat, a.cfg.Planner.DefaultSchema)
					rt, err := registry.Resolve(ctx, planner.TableName{Schema: schemaName, Name: tableName})
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), explain.RenderSchema(rt.Schema))
					return nil
				})
			},
		},
	)
	return cmd
}

// withCatalog opens the configured catalog for the duration of fn.
func (a *app) withCatalog(cmd *cobra.Command, fn func(context.Context, catalog.Catalog) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cat, closeCatalog, err := openCatalog(ctx, a.cfg.Catalog)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCatalog(); err != nil {
			a.logger.Warn("closing catalog failed", log.Err(err))
		}
	}()
	return fn(ctx, cat)
}
