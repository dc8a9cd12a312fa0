// Package processor orchestrates one extraction batch: build the catalog
// membership index from every snapshot row (a hard barrier), resolve each
// calculation view's lineage in parallel, screen the edges against the
// index, and assemble the per-view results into view-level and column-level
// lineage records.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/calclineage/internal/catalog"
	"github.com/leapstack-labs/calclineage/internal/source"
	"github.com/leapstack-labs/calclineage/pkg/lineage"
	"github.com/leapstack-labs/calclineage/pkg/scenario"
)

// Config holds processor settings.
type Config struct {
	// Workers bounds concurrent view resolution; 0 means NumCPU.
	Workers int
}

// Result is the assembled output of one batch.
type Result struct {
	RunID          string
	ViewLineage    []source.Record
	ColumnLineage  []source.Record
	ColumnDetails  []source.Record
	ViewsProcessed int
	ViewsSkipped   int
}

// Processor runs extraction batches. Safe for sequential reuse; a Run owns
// all per-batch state.
type Processor struct {
	src     source.Source
	backend catalog.Backend
	logger  *slog.Logger
	workers int
}

// New creates a Processor reading rows from src and building membership
// sets on backend.
func New(src source.Source, backend catalog.Backend, logger *slog.Logger, cfg Config) *Processor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Processor{
		src:     src,
		backend: backend,
		logger:  logger,
		workers: workers,
	}
}

// Run executes one batch. Individual view failures are recovered by
// omission; only collaborator errors (fetch, index storage) abort the run.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	logger := p.logger.With("run_id", runID)
	logger.Info("starting lineage batch", "workers", p.workers)

	index, calcViews, err := p.buildIndex(ctx, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = index.Close() }()

	outputs := make([]*viewOutput, len(calcViews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range calcViews {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.resolveView(logger, index, rec)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID}
	for _, out := range outputs {
		if out == nil || out.skipped {
			result.ViewsSkipped++
			continue
		}
		result.ViewsProcessed++
		if out.process != nil {
			result.ViewLineage = append(result.ViewLineage, out.process)
		}
		result.ColumnLineage = append(result.ColumnLineage, out.columns...)
		result.ColumnDetails = append(result.ColumnDetails, out.details...)
	}

	logger.Info("lineage batch complete",
		"views_processed", result.ViewsProcessed,
		"views_skipped", result.ViewsSkipped,
		"view_lineage_records", len(result.ViewLineage),
		"column_lineage_records", len(result.ColumnLineage))
	return result, nil
}

// buildIndex populates the membership index from every snapshot row. This
// must complete before any lineage is filtered: validity depends on global
// knowledge of the snapshot. Returns the calculation view rows alongside
// since they are fetched here anyway.
func (p *Processor) buildIndex(ctx context.Context, logger *slog.Logger) (*catalog.Index, []source.Record, error) {
	index := catalog.NewIndex(p.backend)

	objectRows := []struct {
		rt    source.RowType
		field string
	}{
		{source.RowTables, source.FieldTableName},
		{source.RowViews, source.FieldViewName},
	}
	for _, or := range objectRows {
		rows, err := p.src.Fetch(ctx, or.rt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch %s: %w", or.rt, err)
		}
		for _, row := range rows {
			if err := index.AddTableView(row.Str(source.FieldSchema), row.Str(or.field)); err != nil {
				return nil, nil, err
			}
		}
	}

	columns, err := p.src.Fetch(ctx, source.RowTableViewColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", source.RowTableViewColumns, err)
	}
	for _, row := range columns {
		err := index.AddTableViewColumn(
			row.Str(source.FieldSchema),
			row.Str(source.FieldTableName),
			row.Str(source.FieldColumnName),
		)
		if err != nil {
			return nil, nil, err
		}
	}

	calcViews, err := p.src.Fetch(ctx, source.RowCalcViews)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", source.RowCalcViews, err)
	}
	for _, row := range calcViews {
		err := index.AddCalcView(
			row.Str(source.FieldSchema),
			row.Str(source.FieldPackageID),
			row.Str(source.FieldViewName),
		)
		if err != nil {
			return nil, nil, err
		}
	}

	calcViewColumns, err := p.src.Fetch(ctx, source.RowCalcViewColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", source.RowCalcViewColumns, err)
	}
	for _, row := range calcViewColumns {
		err := index.AddCalcViewColumn(
			row.Str(source.FieldSchema),
			row.Str(source.FieldPackageID),
			row.Str(source.FieldViewName),
			row.Str(source.FieldColumnName),
		)
		if err != nil {
			return nil, nil, err
		}
	}

	tv, tvc, cv, cvc := index.Counts()
	logger.Info("catalog index built",
		"table_views", tv,
		"table_view_columns", tvc,
		"calc_views", cv,
		"calc_view_columns", cvc)
	return index, calcViews, nil
}

// viewOutput is the per-view contribution to the batch result.
type viewOutput struct {
	skipped bool
	process source.Record
	columns []source.Record
	details []source.Record
}

// resolveView parses, traces, filters, and assembles one calculation view.
// Missing or malformed definitions skip the view; a view with zero
// accepted source objects contributes no records at all. Only index
// storage errors propagate.
func (p *Processor) resolveView(logger *slog.Logger, index *catalog.Index, rec source.Record) (*viewOutput, error) {
	viewName := rec.Str(source.FieldViewName)
	schema := rec.Str(source.FieldSchema)
	pkg := rec.Str(source.FieldPackageID)

	model, err := scenario.ParseDefinition(rec.Str(source.FieldDefinition))
	if err != nil {
		switch {
		case errors.Is(err, scenario.ErrMissingDefinition):
			logger.Debug("skipping view without definition", "view", viewName, "schema", schema)
		case errors.Is(err, scenario.ErrMalformedDefinition):
			logger.Warn("skipping view with malformed definition", "view", viewName, "schema", schema, "error", err)
		default:
			logger.Warn("skipping view", "view", viewName, "schema", schema, "error", err)
		}
		return &viewOutput{skipped: true}, nil
	}

	extracted := lineage.Extract(logger, model)
	a := newAssembler(schema, pkg, viewName)

	for _, col := range extracted.Columns {
		for _, src := range col.Sources {
			ok, err := index.AcceptColumn(src)
			if err != nil {
				return nil, fmt.Errorf("failed to filter column lineage for %s: %w", viewName, err)
			}
			if ok {
				a.addColumnSource(col.Target.LogicalID, src)
			}
			ok, err = index.AcceptObject(src)
			if err != nil {
				return nil, fmt.Errorf("failed to filter view lineage for %s: %w", viewName, err)
			}
			if ok {
				a.addSourceObject(src)
			}
		}
	}

	out := &viewOutput{
		process: a.processRecord(),
		columns: a.columnRecords(),
	}
	details := model.OutputDetails()
	columns := make([]string, 0, len(details))
	for column := range details {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		detail := details[column]
		out.details = append(out.details, source.Record{
			"schema":      schema,
			"packageId":   pkg,
			"view":        viewName,
			"column":      column,
			"ordinal":     detail.Ordinal,
			"description": detail.Description,
		})
	}
	return out, nil
}
