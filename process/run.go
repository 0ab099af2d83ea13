package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rptl/archive"
	"rptl/config"
	"rptl/layout"
	"rptl/report"
	"rptl/state"
)

// Run is the action of "layout" command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("layout")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if detail := cmd.String("detail"); len(detail) > 0 {
		d, err := config.ParseDumpDetail(detail)
		if err != nil {
			log.Warn("Unknown dump detail requested, using configured one", zap.Stringer("detail", env.Cfg.Output.Detail), zap.Error(err))
		} else {
			env.Cfg.Output.Detail = d
		}
	}
	if cmd.Bool("limited") {
		env.Cfg.Layout.LimitedSubReports = true
	}

	if err := env.LoadStylesheet(); err != nil {
		return err
	}
	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("detail", env.Cfg.Output.Detail))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process determines the input type (directory, archive or single file) and
// handles it accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		ok, err := isReportFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if ok && len(tail) == 0 {
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to open report definition: %w", err)
			}
			defer file.Close()
			return processReport(ctx, file, filepath.Base(head), dst, log)
		}
		return fmt.Errorf("input was not recognized as report definition (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding report definitions and archives.
// Failure of a single definition is logged and does not stop the walk.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		ok, err := isReportFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !ok {
			log.Debug("Skipping file, not recognized as report definition or archive", zap.String("file", path))
			return nil
		}
		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		if err := processReport(ctx, file, rel, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive lays out every report definition inside archive under
// pathIn. pathOut is archive location relative to the original source.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return archive.Walk(path, pathIn, isReportName, func(e *archive.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := e.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", e.Archive), zap.String("file", e.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		count++
		if err := processReport(ctx, r, filepath.Join(pathOut, filepath.FromSlash(e.Name)), dst, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", e.Archive), zap.String("file", e.Name), zap.Error(err))
		}
		return nil
	})
}

// processReport lays out a single report definition. src is path of the
// definition relative to the original source and is used to keep directory
// structure under dst.
func processReport(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Layout starting", zap.String("from", src))
	defer func(start time.Time) {
		// keep going with the remaining definitions
		if r := recover(); r != nil {
			log.Error("Layout ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("layout panic: %v", r)
		} else if rerr == nil {
			log.Info("Layout completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read report definition (%s): %w", src, err)
	}
	env.Rpt.StoreData(filepath.ToSlash(filepath.Join("input", src)), data)

	loader := report.NewLoader(log)
	if env.Stylesheet != nil {
		sheet := loader.AddStylesheet(env.Stylesheet, env.Cfg.Layout.StylesheetPath)
		for _, w := range sheet.Warnings {
			log.Warn("Stylesheet problem", zap.String("stylesheet", env.Cfg.Layout.StylesheetPath), zap.String("warning", w))
		}
	}
	def, err := loader.Load(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to load report definition (%s): %w", src, err)
	}

	res, err := New(def, optionsFrom(&env.Cfg.Layout), log).Run(ctx)
	if err != nil {
		return err
	}
	for _, w := range multierr.Errors(res.Warnings) {
		log.Warn("Report definition problem", zap.String("report", def.Name), zap.Error(w))
	}
	if res.Stats != nil {
		log.Info("Style resolution", zap.String("report", def.Name), zap.Stringer("stats", res.Stats))
	}

	name := def.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	base, err := env.Cfg.Output.OutputName(name)
	if err != nil {
		return err
	}
	outputName = filepath.Join(dst, filepath.Dir(src), base+".txt")

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(layout.Dump(res.Root, dumpOptions(env.Cfg.Output.Detail))), 0644); err != nil {
		return fmt.Errorf("unable to write box tree: %w", err)
	}
	env.Rpt.Store(filepath.ToSlash(filepath.Join("result", filepath.Dir(src), filepath.Base(outputName))), outputName)
	return nil
}

func optionsFrom(conf *config.LayoutConfig) Options {
	return Options{
		DesignTime:             conf.DesignTime,
		LimitedSubReports:      conf.LimitedSubReports,
		CollapseProgressMarker: conf.CollapseProgressMarker,
		SplitSentences:         conf.SplitSentences,
		Stats:                  conf.Stats,
	}
}

func dumpOptions(detail config.DumpDetail) layout.DumpOptions {
	switch detail {
	case config.DumpDetailGeometry:
		return layout.DumpOptions{Geometry: true}
	case config.DumpDetailFull:
		return layout.DumpOptions{IDs: true, Geometry: true, Styles: true}
	}
	return layout.DumpOptions{}
}
