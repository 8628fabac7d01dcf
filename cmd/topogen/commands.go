package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"topogen/internal/bundle"
	"topogen/internal/compiler"
	"topogen/internal/reader"
	"topogen/internal/report"
	"topogen/internal/settings"
	"topogen/internal/topology"
	"topogen/internal/validate"
)

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func runValidate(a *app, args []string) error {
	fs := a.newFlagSet("validate")
	var common commonFlags
	common.register(fs)
	strict := fs.Bool("strict-positive", false, "check time positivity in the schema stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: topogen validate [flags] <topology>...")
	}
	_, log, err := a.load(&common)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	opts := compiler.Options{Logger: log, ValidateOnly: true, CheckPositive: *strict}
	items := make([]report.Item, 0, fs.NArg())
	failed := 0
	for _, path := range fs.Args() {
		res, err := compiler.CompileFile(a.abs(path), opts)
		if err != nil {
			failed++
		}
		it := item(res)
		it.Name = path
		items = append(items, it)
	}
	if err := report.RenderItems(a.stdout, items, a.tty); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topologies failed validation: %w", failed, len(items), errReported)
	}
	return nil
}

// item converts a compilation result for rendering. Errors already listed
// in the report are not repeated.
func item(res *compiler.Result) report.Item {
	it := report.Item{Name: res.Source, Report: res.Report}
	if res.Err != nil && res.Report.OK() {
		it.Err = res.Err
	}
	return it
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

func runGenerate(a *app, args []string) error {
	fs := a.newFlagSet("generate")
	var common commonFlags
	common.register(fs)
	var output string
	fs.StringVar(&output, "o", "", "output directory")
	fs.StringVar(&output, "output", "", "output directory")
	dryRun := fs.Bool("dry-run", false, "print the document, write nothing")
	noArtifacts := fs.Bool("no-artifacts", false, "write only the configuration document")
	overwrite := fs.Bool("overwrite", false, "replace existing files")
	publish := fs.Bool("publish", false, "upload the bundle to S3")
	strict := fs.Bool("strict-positive", false, "check time positivity in the schema stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: topogen generate [flags] <topology>")
	}
	s, log, err := a.load(&common)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	if output != "" {
		s.OutputDir = output
	}
	if *overwrite {
		s.Overwrite = true
	}
	if *noArtifacts {
		s.Artifacts = false
	}

	path := fs.Arg(0)
	res, err := compiler.CompileFile(a.abs(path), compiler.Options{Logger: log, CheckPositive: *strict})
	if err != nil || len(res.Report.Warnings) > 0 {
		it := item(res)
		it.Name = path
		if rerr := report.RenderItems(a.stderr, []report.Item{it}, a.tty); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return fmt.Errorf("generate %s: %w", path, errReported)
	}

	if *dryRun {
		_, err := a.stdout.Write(res.Document)
		return err
	}
	b, err := bundle.Generate(res.Model, res.Document, bundle.Options{Artifacts: s.Artifacts})
	if err != nil {
		return err
	}
	return a.writeBundle(context.Background(), b, s, s.OutputDir, *publish, log)
}

// writeBundle stores b under dir and, when publish is set, in the S3 bucket
// from settings. A bundle already current in dir is left alone.
func (a *app) writeBundle(ctx context.Context, b *bundle.Bundle, s settings.Settings, dir string, publish bool, log *zap.Logger) error {
	dir = a.abs(dir)
	if bundle.Current(dir, b) {
		fmt.Fprintf(a.stdout, "%s is up to date\n", filepath.Join(dir, b.Manifest.Config))
		log.Debug("bundle up to date", zap.String("topology", b.Name), zap.String("path", dir))
	} else {
		sink := bundle.DirSink{Dir: dir, Overwrite: s.Overwrite, Backup: s.Backup}
		if err := bundle.Write(ctx, b, sink); err != nil {
			return err
		}
		for _, p := range b.Paths() {
			fmt.Fprintf(a.stdout, "wrote %s\n", filepath.Join(dir, filepath.FromSlash(p)))
		}
		log.Info("bundle written", zap.String("topology", b.Name), zap.String("path", dir), zap.Int("files", len(b.Paths())))
	}

	if !publish {
		return nil
	}
	s3, err := bundle.NewS3Sink(s.S3Config())
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := bundle.Write(ctx, b, s3); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	fmt.Fprintf(a.stdout, "published %d files to s3://%s/%s\n", len(b.Paths()), s.S3.Bucket, s3.Key(""))
	log.Info("bundle published", zap.String("topology", b.Name), zap.String("bucket", s.S3.Bucket))
	return nil
}

func (a *app) abs(p string) string {
	if p == "" {
		p = "."
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

// ---------------------------------------------------------------------------
// read
// ---------------------------------------------------------------------------

func runRead(a *app, args []string) error {
	fs := a.newFlagSet("read")
	var common commonFlags
	common.register(fs)
	var output string
	fs.StringVar(&output, "o", "", "write YAML to file")
	fs.StringVar(&output, "output", "", "write YAML to file")
	name := fs.String("name", "", "topology name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: topogen read [flags] <document.xml>")
	}
	_, log, err := a.load(&common)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	path := fs.Arg(0)
	m, rep, err := reader.ReadFile(a.abs(path), reader.Options{Name: *name, Source: path})
	if err != nil {
		return err
	}
	rep.Merge(validate.Check(m))
	if len(rep.Errors)+len(rep.Warnings) > 0 {
		if err := report.Render(a.stderr, path, rep, a.tty); err != nil {
			return err
		}
	}
	log.Debug("read document", zap.String("path", path), zap.String("topology", m.Name),
		zap.Int("errors", len(rep.Errors)), zap.Int("warnings", len(rep.Warnings)))

	out, err := topology.Marshal(m)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = a.stdout.Write(out)
		return err
	}
	if err := os.WriteFile(a.abs(output), out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", output)
	return nil
}

// ---------------------------------------------------------------------------
// roundtrip
// ---------------------------------------------------------------------------

func runRoundTrip(a *app, args []string) error {
	fs := a.newFlagSet("roundtrip")
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: topogen roundtrip <topology>")
	}
	_, log, err := a.load(&common)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	path := fs.Arg(0)
	res, err := compiler.CompileFile(a.abs(path), compiler.Options{Logger: log})
	if err != nil {
		if rerr := report.RenderItems(a.stderr, []report.Item{item(res)}, a.tty); rerr != nil {
			return rerr
		}
		return fmt.Errorf("roundtrip %s: %w", path, errReported)
	}
	diff, rep, err := compiler.RoundTrip(res.Model)
	if err != nil {
		return err
	}
	if len(rep.Warnings) > 0 {
		if err := report.Render(a.stderr, path+" (read back)", rep, a.tty); err != nil {
			return err
		}
	}
	if diff != "" {
		fmt.Fprintf(a.stdout, "round trip mismatch (-emitted +read):\n%s", diff)
		return fmt.Errorf("roundtrip %s: models differ", path)
	}
	fmt.Fprintf(a.stdout, "%s round trip ok: %s\n", report.SymbolOK, res.Model.Name)
	return nil
}

// ---------------------------------------------------------------------------
// batch
// ---------------------------------------------------------------------------

func runBatch(a *app, args []string) error {
	fs := a.newFlagSet("batch")
	var common commonFlags
	common.register(fs)
	workers := fs.Int("workers", 0, "parallel compilations")
	var output string
	fs.StringVar(&output, "o", "", "write bundles under this directory")
	fs.StringVar(&output, "output", "", "write bundles under this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: topogen batch [flags] <dir>")
	}
	s, log, err := a.load(&common)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	if *workers > 0 {
		s.Workers = *workers
	}

	root := a.abs(fs.Arg(0))
	paths, err := compiler.Discover(root, s.IsIgnored)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(a.stdout, "no topologies under %s\n", fs.Arg(0))
		return nil
	}

	ctx := context.Background()
	results, err := compiler.CompileAll(ctx, paths, compiler.Options{Logger: log}, s.Workers)
	if err != nil {
		return err
	}

	items := make([]report.Item, len(results))
	failed := 0
	for i, res := range results {
		items[i] = item(res)
		if rel, err := filepath.Rel(root, res.Source); err == nil {
			items[i].Name = filepath.ToSlash(rel)
		}
		if !res.OK() {
			failed++
			continue
		}
		if output != "" {
			b, err := bundle.Generate(res.Model, res.Document, bundle.Options{Artifacts: s.Artifacts})
			if err != nil {
				return err
			}
			if err := a.writeBundle(ctx, b, s, filepath.Join(output, b.Name), false, log); err != nil {
				return err
			}
		}
	}
	if err := report.RenderItems(a.stdout, items, a.tty); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topologies failed: %w", failed, len(results), errReported)
	}
	return nil
}
