package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/log"
)

// app carries state shared by all subcommands of one invocation.
type app struct {
	loader     *config.Loader
	configFile string
	noColor    bool
	cfg        *config.Config
	logger     log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "quantaplan",
		Short: "quantaplan compiles SQL queries into logical and physical plans.",
		Long: "quantaplan resolves SELECT statements against a table catalog, builds a\n" +
			"logical plan and lowers it to a physical operator tree annotated with\n" +
			"partition estimates from the storage layout.",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to configuration file (yaml, json or toml)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("catalog", "", "Catalog backend (memory, badger, postgres)")
	flags.String("catalog-path", "", "Badger catalog directory")
	flags.String("catalog-dsn", "", "Postgres connection string for the postgres catalog")
	flags.String("layout", "", "Storage layout (static, dir)")
	flags.String("data-dir", "", "Data directory for the dir layout")

	root.AddCommand(newExplainCommand(a), newCatalogCommand(a))
	return root
}

var flagKeys = map[string]string{
	"log-level":    "log.level",
	"catalog":      "catalog.backend",
	"catalog-path": "catalog.path",
	"catalog-dsn":  "catalog.dsn",
	"layout":       "storage.layout",
	"data-dir":     "storage.data_dir",
}

func (a *app) setup(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := a.loader.BindFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}

	cfg, err := a.loader.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log.Configure(cfg.Log, cmd.ErrOrStderr())
	a.logger = log.Default()
	a.logger.Debug("configuration loaded",
		log.String("catalog", cfg.Catalog.Backend),
		log.String("layout", cfg.Storage.Layout),
		log.Bool("color", !a.noColor))
	return nil
}
