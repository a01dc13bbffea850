// Package sql compiles SQL queries into logical and physical plans.
package sql

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/config"
	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/metrics"
	"github.com/dshills/quantaplan/internal/sql/explain"
	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/sql/planner"
	"github.com/dshills/quantaplan/internal/storage"
)

// CompiledPlan is the result of one successful compile. Both trees are
// immutable and may be shared between goroutines.
type CompiledPlan struct {
	ID          uuid.UUID
	SQL         string
	Logical     planner.LogicalPlan
	Physical    planner.PhysicalPlan
	Fingerprint uint64
}

// Explain renders both plans in EXPLAIN format.
func (p *CompiledPlan) Explain() string {
	return explain.Format(p.Logical, p.Physical)
}

// Compiler turns SELECT statements into compiled plans. It holds no
// per-query state; a single Compiler may be used from many goroutines.
type Compiler struct {
	planner  *planner.Planner
	physical *planner.PhysicalPlanner
	logger   log.Logger
	metrics  *metrics.Compiler
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compile events.
func WithLogger(l log.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithMetrics sets the collectors updated by each compile.
func WithMetrics(m *metrics.Compiler) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// NewCompiler creates a compiler reading table definitions from cat and
// partition estimates from layout.
func NewCompiler(cat catalog.Catalog, layout storage.Layout, cfg config.PlannerConfig, opts ...Option) *Compiler {
	registry := planner.NewRegistry(cat, cfg.DefaultSchema)
	builder := &planner.Builder{FoldScanProjections: cfg.FoldScanProjections}

	c := &Compiler{
		planner:  planner.NewPlanner(registry, builder),
		physical: planner.NewPhysicalPlanner(layout),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileSQL parses text and compiles the SELECT statement it contains.
func (c *Compiler) CompileSQL(ctx context.Context, text string) (*CompiledPlan, error) {
	id := uuid.New()
	logger := c.logger.With(log.Stringer("compile_id", id))
	start := time.Now()

	stmt, err := parser.Parse(text)
	c.phaseDone(logger, metrics.PhaseParse, start)
	if err != nil {
		return nil, c.fail(logger, err, start)
	}

	sel, ok := stmt.(*parser.SelectStmt)
	if !ok {
		return nil, c.fail(logger, errs.FeatureNotSupportedError("compiling statements other than SELECT"), start)
	}

	plan, err := c.compile(ctx, id, logger, sel, start)
	if err != nil {
		return nil, err
	}
	plan.SQL = text
	return plan, nil
}

// Compile builds and lowers stmt. It returns either a complete plan or an
// error, never both.
func (c *Compiler) Compile(ctx context.Context, stmt *parser.SelectStmt) (*CompiledPlan, error) {
	id := uuid.New()
	return c.compile(ctx, id, c.logger.With(log.Stringer("compile_id", id)), stmt, time.Now())
}

func (c *Compiler) compile(ctx context.Context, id uuid.UUID, logger log.Logger, stmt *parser.SelectStmt, start time.Time) (*CompiledPlan, error) {
	phase := time.Now()
	logical, err := c.planner.Plan(ctx, stmt)
	c.phaseDone(logger, metrics.PhaseLogical, phase)
	if err != nil {
		return nil, c.fail(logger, err, start)
	}

	phase = time.Now()
	err = planner.Validate(logical)
	c.phaseDone(logger, metrics.PhaseValidate, phase)
	if err != nil {
		return nil, c.fail(logger, err, start)
	}

	phase = time.Now()
	physical, err := c.physical.Lower(ctx, logical)
	c.phaseDone(logger, metrics.PhasePhysical, phase)
	if err != nil {
		return nil, c.fail(logger, err, start)
	}

	plan := &CompiledPlan{
		ID:          id,
		Logical:     logical,
		Physical:    physical,
		Fingerprint: explain.Fingerprint(logical, physical),
	}

	elapsed := time.Since(start)
	logicalNodes := planner.CountNodes(logical)
	physicalNodes := planner.CountNodes(physical)
	aliases := planner.CountAliases(logical)
	if c.metrics != nil {
		c.metrics.ObserveCompile(metrics.OutcomeOK, elapsed)
		c.metrics.ObservePlan(logicalNodes, physicalNodes, aliases)
	}
	logger.Info("plan compiled",
		log.Hex("fingerprint", plan.Fingerprint),
		log.Int("logical_nodes", logicalNodes),
		log.Int("physical_nodes", physicalNodes),
		log.Duration("duration", elapsed))

	return plan, nil
}

func (c *Compiler) phaseDone(logger log.Logger, phase string, start time.Time) {
	d := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObservePhase(phase, d)
	}
	logger.Debug("compile phase finished", log.String("phase", phase), log.Duration("duration", d))
}

// fail records a failed compile and returns err unchanged.
func (c *Compiler) fail(logger log.Logger, err error, start time.Time) error {
	code := errs.Code(err)
	if code == "" {
		code = errs.InternalError
	}
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.ObserveCompile(code, elapsed)
	}
	attrs := []any{log.String("code", code), log.Duration("duration", elapsed), log.Err(err)}
	if qErr, ok := errs.As(err); ok && len(qErr.Path) > 0 {
		attrs = append(attrs, log.String("path", qErr.Path.String()))
	}
	logger.Warn("plan compile failed", attrs...)
	return err
}
