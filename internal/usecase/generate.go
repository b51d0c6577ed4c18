package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/export"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/longop"
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// GenerateOperation is the long-operation name of a generation run.
const GenerateOperation = "generate"

// GenerateRequest describes one generation run.
type GenerateRequest struct {
	// Root is the output directory.
	Root      string
	Selection generator.Selection
	DryRun    bool
	// StoreCode keeps rendered content in the File rows.
	StoreCode bool
	// Format runs the configured formatter on written files.
	Format bool
}

// FillFiles recomputes the File rows of the loaded workspace. Files
// already present under outputRoot are marked existing.
func (s *Service) FillFiles(ctx context.Context, outputRoot string) ([]*model.File, error) {
	files, err := generator.FillFiles(ctx, s.factory, generator.FillOptions{OutputRoot: outputRoot, Now: s.now})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("files filled", zap.Int("count", len(files)))
	return files, nil
}

// Generate renders and writes the selected files on the calling goroutine.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*generator.Result, error) {
	return generator.Generate(ctx, s.factory, s.generateOptions(req))
}

// StartGenerate runs Generate as a long operation and returns its id.
// Progress follows the rendered files; Cancel stops before the next file
// and keeps what was rendered.
func (s *Service) StartGenerate(ctx context.Context, req GenerateRequest) string {
	return s.ops.Start(ctx, GenerateOperation, func(ctx context.Context, r longop.Reporter) (any, error) {
		opts := s.generateOptions(req)
		opts.Progress = r.Report
		opts.Cancelled = r.Cancelled
		return generator.Generate(ctx, s.factory, opts)
	})
}

// GenerateResult returns the result of a finished StartGenerate run. A
// cancelled run returns its partial result with longop.ErrCancelled.
func (s *Service) GenerateResult(id string) (*generator.Result, error) {
	v, err := s.ops.Result(id)
	res, _ := v.(*generator.Result)
	if err != nil {
		return res, err
	}
	if res == nil {
		return nil, fmt.Errorf("operation %s: unexpected result %T", id, v)
	}
	return res, nil
}

func (s *Service) generateOptions(req GenerateRequest) generator.Options {
	opts := generator.Options{
		Root:      req.Root,
		Selection: req.Selection,
		DryRun:    req.DryRun,
		StoreCode: req.StoreCode,
		Now:       s.now,
		Logger:    s.logger,
	}
	if req.Format {
		opts.Formatter = s.formatter
	}
	return opts
}

// ExportMermaid renders the loaded workspace as a Mermaid ER diagram.
func (s *Service) ExportMermaid(ctx context.Context) (string, error) {
	return export.Mermaid(ctx, s.factory)
}
