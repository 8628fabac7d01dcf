// Package compiler wires the topology stages together:
//
//	text -> source.Parse -> normalize.Normalize -> schema.Lift
//	     -> validate.Check -> emit.Emit
//
// Each compilation is independent and holds no shared state, so many can run
// at once (see CompileAll). The stages themselves do not log; the compiler
// logs through the *zap.Logger in Options.
package compiler

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"topogen/internal/diag"
	"topogen/internal/emit"
	"topogen/internal/normalize"
	"topogen/internal/schema"
	"topogen/internal/source"
	"topogen/internal/topology"
	"topogen/internal/validate"
)

// Stage names the last pipeline stage a compilation reached.
type Stage string

const (
	StageParse    Stage = "parse"
	StageSchema   Stage = "schema"
	StageSemantic Stage = "semantic"
	StageEmit     Stage = "emit"
	StageDone     Stage = "done"
)

// Options configures a compilation.
type Options struct {
	// Logger receives progress and summary lines. Nil discards them.
	Logger *zap.Logger
	// ValidateOnly stops after the semantic check; no document is emitted.
	ValidateOnly bool
	// CheckPositive moves the time-value positivity check into the schema
	// stage.
	CheckPositive bool
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Result is everything one compilation produced. Model is nil when the
// input did not parse or failed the schema check. Document is nil unless
// Stage is StageDone and ValidateOnly was off.
type Result struct {
	Source   string
	Format   source.Format
	Model    *topology.Model
	Document []byte
	Report   diag.Report
	Stage    Stage
	Err      error
}

// OK reports whether the compilation finished without a blocking error.
func (r *Result) OK() bool { return r.Err == nil }

// Compile runs the pipeline over data. The returned error is also stored in
// Result.Err and is one of *diag.ParseError, diag.StructuralErrors or
// diag.SemanticErrors for input problems.
func Compile(name string, data []byte, f source.Format, opts Options) (*Result, error) {
	log := opts.logger().With(zap.String("source", name), zap.String("format", string(f)))
	res := &Result{Source: name, Format: f, Stage: StageParse}

	raw, err := source.Parse(data, f, name)
	if err != nil {
		log.Debug("parse failed", zap.Error(err))
		return res.fail(err)
	}
	log.Debug("parsed topology", zap.Int("bytes", len(data)))
	return compileTree(res, raw, opts, log)
}

// CompileTree runs the pipeline from an already parsed raw tree.
func CompileTree(name string, raw map[string]any, opts Options) (*Result, error) {
	log := opts.logger().With(zap.String("source", name))
	return compileTree(&Result{Source: name, Stage: StageParse}, raw, opts, log)
}

// CompileFile loads path, picking the format from its extension.
func CompileFile(path string, opts Options) (*Result, error) {
	f, err := source.FormatOf(path)
	if err != nil {
		return (&Result{Source: path, Stage: StageParse}).fail(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return (&Result{Source: path, Format: f, Stage: StageParse}).fail(fmt.Errorf("read topology: %w", err))
	}
	return Compile(path, data, f, opts)
}

func compileTree(res *Result, raw map[string]any, opts Options, log *zap.Logger) (*Result, error) {
	res.Stage = StageSchema
	m, rep := schema.Lift(normalize.Normalize(raw), schema.Options{CheckPositive: opts.CheckPositive})
	res.Report.Merge(rep)
	if !rep.OK() {
		log.Debug("schema check failed", zap.Int("errors", len(rep.Errors)))
		return res.fail(diag.StructuralErrors(rep.Errors))
	}
	res.Model = m
	log = log.With(zap.String("topology", m.Name))

	res.Stage = StageSemantic
	sem := validate.Check(m)
	res.Report.Merge(sem)
	if !sem.OK() {
		log.Debug("semantic check failed", zap.Int("errors", len(sem.Errors)))
		return res.fail(diag.SemanticErrors(sem.Errors))
	}
	for _, w := range res.Report.Warnings {
		log.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.String("path", w.Path))
	}

	if opts.ValidateOnly {
		res.Stage = StageDone
		log.Info("topology is valid", zap.Int("warnings", len(res.Report.Warnings)))
		return res, nil
	}

	res.Stage = StageEmit
	doc, err := emit.Emit(m)
	if err != nil {
		return res.fail(fmt.Errorf("emit %s: %w", m.Name, err))
	}
	res.Document = doc
	res.Stage = StageDone
	log.Info("compiled topology",
		zap.Int("bytes", len(doc)),
		zap.Int("warnings", len(res.Report.Warnings)),
	)
	return res, nil
}

func (r *Result) fail(err error) (*Result, error) {
	r.Err = err
	return r, err
}
