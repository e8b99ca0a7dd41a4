package app

import (
	"context"

	"brandpost/internal/app/model"
	"brandpost/internal/platform"
	"brandpost/internal/storage"
	"brandpost/pkg/config"
)

type ProfileExtractor interface {
	Extract(ctx context.Context, samples []string) (*model.BrandProfile, error)
}

type TextGenerator interface {
	Provider() string
	Generate(ctx context.Context, profile *model.BrandProfile, params model.GenerationParams, spec platform.Spec) (*model.TextPost, error)
}

type VisualGenerator interface {
	Provider() string
	Generate(ctx context.Context, profile *model.BrandProfile, post *model.TextPost, params model.GenerationParams, spec platform.Spec) (*model.ImageAsset, error)
}

type Service struct {
	cfg       *config.Config
	extractor ProfileExtractor
	text      TextGenerator
	visual    VisualGenerator
	writer    storage.Writer
	closers   []func() error
}

type ServiceOptions struct {
	Config    *config.Config
	Extractor ProfileExtractor
	Text      TextGenerator
	Visual    VisualGenerator
	Writer    storage.Writer
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:       opts.Config,
		extractor: opts.Extractor,
		text:      opts.Text,
		visual:    opts.Visual,
		writer:    opts.Writer,
	}
}

func (s *Service) Config() *config.Config      { return s.cfg }
func (s *Service) Extractor() ProfileExtractor { return s.extractor }
func (s *Service) Text() TextGenerator         { return s.text }
func (s *Service) Visual() VisualGenerator     { return s.visual }
func (s *Service) Writer() storage.Writer      { return s.writer }

func (s *Service) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
