package app

import (
	"path/filepath"
	"time"

	"coalesce/internal/core/errors"
	"coalesce/internal/core/ports"
	"coalesce/internal/shared/util"
	"coalesce/internal/shared/version"
	"coalesce/internal/ui/report/formats"
)

// GenerateOutputs writes the configured report files and returns their paths.
func (a *App) GenerateOutputs(res ports.ScanResult) ([]string, error) {
	a.mu.RLock()
	out := a.Config().Output
	a.mu.RUnlock()

	root := a.Paths.ProjectRoot
	var written []string
	write := func(target string, data []byte) error {
		if target == "" {
			return nil
		}
		path := a.Paths.Output(target)
		if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output"), errors.CtxPath, path)
		}
		written = append(written, path)
		return nil
	}

	if out.SARIF != "" {
		data, err := formats.GenerateSARIF(root, res.Files)
		if err != nil {
			return written, err
		}
		if err := write(out.SARIF, data); err != nil {
			return written, err
		}
	}
	if out.Markdown != "" {
		md, err := formats.NewMarkdownGenerator().Generate(res.Files, formats.MarkdownReportOptions{
			ProjectName: filepath.Base(root),
			ProjectRoot: root,
			Version:     version.Version,
			PHPVersion:  res.PHPVersion,
			GeneratedAt: time.Now().UTC(),
		})
		if err != nil {
			return written, err
		}
		if err := write(out.Markdown, []byte(md)); err != nil {
			return written, err
		}
	}
	if out.TSV != "" {
		tsv, err := formats.GenerateTSV(root, res.Files)
		if err != nil {
			return written, err
		}
		if err := write(out.TSV, []byte(tsv)); err != nil {
			return written, err
		}
	}
	return written, nil
}
