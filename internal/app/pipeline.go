package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"brandpost/internal/app/model"
	"brandpost/internal/platform"
	"brandpost/pkg/config"
)

type Pipeline struct {
	service *Service
	now     func() time.Time
	newID   func() string
}

// PostError is a single post failing at one stage. Under the abort policy it
// is returned from Run.
type PostError struct {
	Index int
	Stage model.Stage
	Err   error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *PostError) Unwrap() error { return e.Err }

type generationContext struct {
	pipeline *Pipeline
	session  *session
	profile  *model.BrandProfile
	params   model.GenerationParams
	spec     platform.Spec
}

type postOutcome struct {
	record  *model.PostRecord
	failure *model.PostFailure
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{
		service: service,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run executes one generation run: validate, extract the brand profile, then
// produce, package and persist each post. Setup failures are returned before
// anything is written. Per-post failures are collected in the result unless
// the abort policy is active.
func (pipeline *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	cfg := pipeline.service.Config()

	slog.Debug("Pipeline stage", "stage", model.StageInit)
	params := generationParams(cfg)
	if params.NumPosts <= 0 {
		err := &config.ConfigError{Field: "generation_params.num_posts", Err: fmt.Errorf("must be positive, got %d", params.NumPosts)}
		slog.Error("Pipeline stopped", "stage", model.StageInit, "error", err)
		return nil, err
	}
	spec, err := platform.Lookup(params.Platform)
	if err != nil {
		slog.Error("Pipeline stopped", "stage", model.StageInit, "error", err)
		return nil, err
	}
	params.Platform = spec.Name

	generation := &generationContext{
		pipeline: pipeline,
		session:  newSession(pipeline.now()),
		params:   params,
		spec:     spec,
	}

	slog.Info("Extracting brand profile...", "samples", len(cfg.BrandSamples))
	profile, err := pipeline.service.Extractor().Extract(ctx, cfg.BrandSamples)
	if err != nil {
		slog.Error("Pipeline stopped", "stage", model.StageExtractProfile, "error", err)
		return nil, fmt.Errorf("extract brand profile: %w", err)
	}
	generation.profile = profile
	slog.Info("Brand profile ready", "tone", profile.Tone, "sentiment", profile.Sentiment, "keywords", profile.StyleKeywords)

	slog.Info("Generating posts...",
		"run", generation.session.runID,
		"count", params.NumPosts,
		"platform", spec.Name,
		"concurrency", cfg.Generation.Concurrency,
		"policy", cfg.Generation.FailurePolicy)

	outcomes, runErr := generation.generatePosts(ctx, cfg.Generation.Concurrency, cfg.Generation.FailurePolicy == config.PolicyAbort)

	result := generation.buildResult(outcomes, pipeline.now())
	result.Aborted = runErr != nil

	// The summary is written even when the run was cancelled.
	summaryPath, err := pipeline.service.Writer().WriteSummary(context.WithoutCancel(ctx), result)
	if err != nil {
		slog.Error("Failed to write run summary", "stage", model.StagePersist, "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("write run summary: %w", err)
		}
	} else {
		slog.Info("Run summary saved", "path", summaryPath)
	}

	if runErr != nil {
		slog.Error("Pipeline stopped", "stage", model.StageError, "error", runErr)
		return result, runErr
	}

	slog.Debug("Pipeline stage", "stage", model.StageDone)
	return result, nil
}

// generatePosts runs one iteration per post on a pool bounded by concurrency.
// Outcomes are stored by post index and read only after the pool drains.
func (generation *generationContext) generatePosts(ctx context.Context, concurrency int, abort bool) ([]postOutcome, error) {
	n := generation.params.NumPosts
	outcomes := make([]postOutcome, n)

	g, gctx := errgroup.WithContext(ctx)
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		index := i + 1
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			record, err := generation.generatePost(gctx, index)
			if err == nil {
				outcomes[index-1].record = record
				return nil
			}

			// Posts interrupted by cancellation are discarded, not failed.
			if gctx.Err() != nil {
				slog.Debug("Post discarded", "post", index, "error", err)
				return nil
			}

			var postErr *PostError
			if !errors.As(err, &postErr) {
				postErr = &PostError{Index: index, Stage: model.StageError, Err: err}
			}
			slog.Error("Post failed", "post", index, "stage", postErr.Stage, "error", postErr.Err)
			outcomes[index-1].failure = &model.PostFailure{Index: index, Stage: postErr.Stage, Error: postErr.Err.Error()}

			if abort {
				return postErr
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (generation *generationContext) generatePost(ctx context.Context, index int) (*model.PostRecord, error) {
	service := generation.pipeline.service

	slog.Info("Generating post", "post", index, "stage", model.StageGenerateText)
	text, err := service.Text().Generate(ctx, generation.profile, generation.params, generation.spec)
	if err != nil {
		return nil, &PostError{Index: index, Stage: model.StageGenerateText, Err: err}
	}

	slog.Debug("Generating visual", "post", index, "stage", model.StageGenerateImage)
	image, err := service.Visual().Generate(ctx, generation.profile, text, generation.params, generation.spec)
	if err != nil {
		return nil, &PostError{Index: index, Stage: model.StageGenerateImage, Err: err}
	}

	post, err := generation.packagePost(index, text, image)
	if err != nil {
		return nil, &PostError{Index: index, Stage: model.StagePackage, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := service.Writer().Write(ctx, post)
	if err != nil {
		return nil, &PostError{Index: index, Stage: model.StagePersist, Err: err}
	}

	slog.Info("Post saved", "post", index, "id", post.ID, "path", record.JSONPath)
	return record, nil
}

func (generation *generationContext) packagePost(index int, text *model.TextPost, image *model.ImageAsset) (*model.GeneratedPost, error) {
	spec := generation.spec
	if image.Width != spec.Width || image.Height != spec.Height {
		return nil, fmt.Errorf("image is %dx%d, %s requires %dx%d", image.Width, image.Height, spec.Name, spec.Width, spec.Height)
	}
	if len(image.Data) == 0 {
		return nil, errors.New("image has no data")
	}

	service := generation.pipeline.service
	return &model.GeneratedPost{
		ID:    generation.pipeline.newID(),
		RunID: generation.session.runID,
		Index: index,
		Text:  *text,
		Image: *image,
		Metadata: model.PostMetadata{
			Profile:       *generation.profile,
			Params:        generation.params,
			Platform:      spec,
			TextPrompt:    text.Prompt,
			ImagePrompt:   image.Prompt,
			TextProvider:  service.Text().Provider(),
			ImageProvider: service.Visual().Provider(),
			TextAttempts:  text.Attempts,
			Truncated:     text.Truncated,
		},
	}, nil
}

func (generation *generationContext) buildResult(outcomes []postOutcome, finishedAt time.Time) *model.RunResult {
	posts, failures := mergeOutcomes(outcomes)
	return &model.RunResult{
		RunID:      generation.session.runID,
		Platform:   generation.spec.Name,
		StartedAt:  generation.session.startedAt,
		FinishedAt: finishedAt.UTC(),
		Profile:    generation.profile,
		Posts:      posts,
		Failures:   failures,
		Statistics: buildStatistics(generation.params.NumPosts, posts, failures),
	}
}

func generationParams(cfg *config.Config) model.GenerationParams {
	gp := cfg.GenerationParams
	return model.GenerationParams{
		NumPosts:       gp.NumPosts,
		PostType:       gp.PostType,
		TargetAudience: gp.TargetAudience,
		Platform:       gp.Platform,
		ContentGoals:   gp.ContentGoals,
	}
}
