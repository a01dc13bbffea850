package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/metrics"
	"github.com/dshills/quantaplan/internal/sql"
	"github.com/dshills/quantaplan/internal/sql/explain"
	"github.com/dshills/quantaplan/internal/storage"
)

type explainOptions struct {
	ddlFiles    []string
	rows        []string
	schema      bool
	fingerprint bool
}

func newExplainCommand(a *app) *cobra.Command {
	opts := &explainOptions{}
	cmd := &cobra.Command{
		Use:   "explain <sql>",
		Short: "Print the logical and physical plan of a SELECT statement.",
		Example: "quantaplan explain --ddl schema.sql --rows t1=100,200 \\\n" +
			"  'select * from (select t1.id, t2.age from t1 cross join t2) as f(c1, c2)'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExplain(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&opts.ddlFiles, "ddl", nil, "DDL file to load into the catalog before planning (repeatable)")
	cmd.Flags().StringArrayVar(&opts.rows, "rows", nil, "Partition row counts for the static layout, table=n[,n...] (repeatable)")
	cmd.Flags().BoolVar(&opts.schema, "schema", false, "Also print the output schema of the plan")
	cmd.Flags().BoolVar(&opts.fingerprint, "fingerprint", false, "Also print the plan fingerprint")
	return cmd
}

func (a *app) runExplain(cmd *cobra.Command, opts *explainOptions, text string) error {
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

	if len(opts.ddlFiles) > 0 {
		w, err := writable(cat, a.cfg.Catalog.Backend)
		if err != nil {
			return err
		}
		for _, path := range opts.ddlFiles {
			n, err := loadDDLFile(ctx, w, path, a.cfg.Planner.DefaultSchema)
			if err != nil {
				return err
			}
			a.logger.Debug("ddl loaded", log.String("file", path), log.Int("statements", n))
		}
	}

	layout := openLayout(a.cfg.Storage)
	if len(opts.rows) > 0 {
		static, ok := layout.(*storage.StaticLayout)
		if !ok {
			return fmt.Errorf("--rows requires the %q storage layout", config.LayoutStatic)
		}
		for _, arg := range opts.rows {
			schemaName, tableName, rows, err := parseRows(arg)
			if err != nil {
				return err
			}
			static.RegisterRows(schemaOr(schemaName, a.cfg.Planner.DefaultSchema), tableName, rows...)
		}
	}

	m, err := metrics.NewCompiler(nil)
	if err != nil {
		return err
	}
	compiler := sql.NewCompiler(cat, layout, a.cfg.Planner,
		sql.WithLogger(a.logger),
		sql.WithMetrics(m),
	)

	plan, err := compiler.CompileSQL(ctx, text)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hl := explain.NewHighlighter(!a.noColor && !color.NoColor)
	fmt.Fprint(out, hl.Highlight(plan.Explain()))
	if opts.schema {
		fmt.Fprintln(out)
		fmt.Fprint(out, explain.RenderSchema(plan.Logical.Schema()))
	}
	if opts.fingerprint {
		fmt.Fprintf(out, "fingerprint: %s\n", explain.FormatFingerprint(plan.Fingerprint))
	}
	return nil
}
