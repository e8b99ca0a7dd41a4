package app

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brandpost/internal/app/model"
	"brandpost/internal/brand"
	"brandpost/internal/content"
	"brandpost/internal/llm"
	"brandpost/internal/llm/stub"
	"brandpost/internal/platform"
	"brandpost/internal/storage"
	"brandpost/pkg/config"
	"brandpost/pkg/prompts"
	"brandpost/pkg/retry"
)

type fakeExtractor struct {
	profile *model.BrandProfile
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []string) (*model.BrandProfile, error) {
	return f.profile, f.err
}

// flakyImages fails the calls whose 1-based number is in failOn.
type flakyImages struct {
	*stub.Provider
	calls  atomic.Int32
	failOn map[int32]bool
}

func (f *flakyImages) GenerateImage(ctx context.Context, req llm.ImageRequest) ([]byte, error) {
	n := f.calls.Add(1)
	if f.failOn[n] {
		return nil, llm.NewStatusError("fake", "generate image", 400, errors.New("content policy violation"))
	}
	return f.Provider.GenerateImage(ctx, req)
}

// flakyText fails the calls whose 1-based number is in failOn with a
// retryable upstream error.
type flakyText struct {
	*stub.Provider
	calls  atomic.Int32
	failed atomic.Int32
	failOn map[int32]bool
}

func (f *flakyText) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	n := f.calls.Add(1)
	if f.failOn[n] {
		f.failed.Add(1)
		return "", llm.NewStatusError("fake", "generate text", 503, errors.New("upstream unavailable"))
	}
	return f.Provider.GenerateText(ctx, req)
}

// cancellingText cancels the run on its first call.
type cancellingText struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (c *cancellingText) Provider() string { return "cancelling" }

func (c *cancellingText) Generate(ctx context.Context, _ *model.BrandProfile, _ model.GenerationParams, _ platform.Spec) (*model.TextPost, error) {
	c.once.Do(c.cancel)
	<-ctx.Done()
	return nil, ctx.Err()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Providers.Text.Name = config.ProviderStub
	cfg.Providers.Image.Name = config.ProviderStub
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Retry.MaxAttempts = 1
	cfg.Retry.InitialDelay = time.Millisecond
	return cfg
}

func testProfile() *model.BrandProfile {
	return &model.BrandProfile{
		Tone:          "friendly",
		Sentiment:     0.6,
		StyleKeywords: []string{"innovation", "quality"},
		Colors:        []string{"#FF5733"},
		Style:         "modern",
		SampleCount:   3,
	}
}

func newTestService(t *testing.T, cfg *config.Config, images llm.ImageGenerator) *Service {
	t.Helper()
	p, err := prompts.Load()
	if err != nil {
		t.Fatalf("prompts.Load() error: %v", err)
	}
	rc := retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   cfg.Retry.Multiplier,
	}

	return NewService(ServiceOptions{
		Config:    cfg,
		Extractor: &fakeExtractor{profile: testProfile()},
		Text:      content.NewTextGenerator(stub.NewProvider(), p, content.TextOptions{Retry: rc}),
		Visual:    content.NewVisualGenerator(images, p, content.VisualOptions{Retry: rc}),
		Writer:    storage.NewLocalStorage(cfg.Output.Dir),
	})
}

func listFiles(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestPipelineRunProducesPosts(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.NumPosts = 3
	cfg.GenerationParams.Platform = "Instagram"
	cfg.Generation.Concurrency = 2

	result, err := NewPipeline(newTestService(t, cfg, stub.NewProvider())).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Statistics.Succeeded != 3 || result.Statistics.Failed != 0 || result.Statistics.PostsWithVisuals != 3 {
		t.Errorf("Statistics = %+v", result.Statistics)
	}
	if result.Platform != "instagram" {
		t.Errorf("Platform = %q, want instagram", result.Platform)
	}

	jsonFiles := listFiles(t, cfg.Output.Dir, "post_*.json")
	jpgFiles := listFiles(t, cfg.Output.Dir, "post_*.jpg")
	if len(jsonFiles) != 3 || len(jpgFiles) != 3 {
		t.Fatalf("files = %d json, %d jpg, want 3 each", len(jsonFiles), len(jpgFiles))
	}

	for i, post := range result.Posts {
		if post.Index != i+1 {
			t.Errorf("Posts[%d].Index = %d, want %d", i, post.Index, i+1)
		}
		if strings.TrimSuffix(post.JSONPath, ".json") != strings.TrimSuffix(post.ImagePath, ".jpg") {
			t.Errorf("post %d files do not share an id: %s, %s", post.Index, post.JSONPath, post.ImagePath)
		}

		f, err := os.Open(post.ImagePath)
		if err != nil {
			t.Fatalf("open image: %v", err)
		}
		imgCfg, err := jpeg.DecodeConfig(f)
		_ = f.Close()
		if err != nil {
			t.Fatalf("decode image: %v", err)
		}
		if imgCfg.Width != 1080 || imgCfg.Height != 1080 {
			t.Errorf("image %s is %dx%d, want 1080x1080", post.ImagePath, imgCfg.Width, imgCfg.Height)
		}
	}

	if summaries := listFiles(t, cfg.Output.Dir, "run_*.json"); len(summaries) != 1 {
		t.Errorf("summaries = %v, want one", summaries)
	}
}

func TestPipelineRunSkipsFailedPost(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.NumPosts = 3
	cfg.GenerationParams.Platform = "twitter"

	images := &flakyImages{Provider: stub.NewProvider(), failOn: map[int32]bool{2: true}}
	result, err := NewPipeline(newTestService(t, cfg, images)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Statistics.Succeeded != 2 || result.Statistics.Failed != 1 {
		t.Errorf("Statistics = %+v", result.Statistics)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v", result.Failures)
	}
	failure := result.Failures[0]
	if failure.Index != 2 || failure.Stage != model.StageGenerateImage {
		t.Errorf("failure = %+v, want post 2 at %s", failure, model.StageGenerateImage)
	}
	if n := len(listFiles(t, cfg.Output.Dir, "post_*.jpg")); n != 2 {
		t.Errorf("images on disk = %d, want 2", n)
	}
}

func TestPipelineRunSkipsPostAfterTextRetries(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.NumPosts = 3
	cfg.Generation.Concurrency = 1
	cfg.Retry.MaxAttempts = 3

	service := newTestService(t, cfg, stub.NewProvider())
	p, err := prompts.Load()
	if err != nil {
		t.Fatalf("prompts.Load() error: %v", err)
	}
	// Posts run in order, so calls 2 to 4 all belong to post 2.
	text := &flakyText{Provider: stub.NewProvider(), failOn: map[int32]bool{2: true, 3: true, 4: true}}
	service.text = content.NewTextGenerator(text, p, content.TextOptions{
		Retry: retry.Config{MaxAttempts: cfg.Retry.MaxAttempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	})

	result, err := NewPipeline(service).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Statistics.Succeeded != 2 || result.Statistics.Failed != 1 {
		t.Errorf("Statistics = %+v, want 2 succeeded and 1 failed", result.Statistics)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want one", result.Failures)
	}
	failure := result.Failures[0]
	if failure.Index != 2 || failure.Stage != model.StageGenerateText {
		t.Errorf("failure = %+v, want post 2 at %s", failure, model.StageGenerateText)
	}
	if got := text.failed.Load(); got != 3 {
		t.Errorf("failed text calls for post 2 = %d, want 3", got)
	}
	if got := text.calls.Load(); got != 5 {
		t.Errorf("text calls = %d, want 5", got)
	}
	if n := len(listFiles(t, cfg.Output.Dir, "post_*.json")); n != 2 {
		t.Errorf("posts on disk = %d, want 2", n)
	}
}

func TestPipelineRunAbortPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.NumPosts = 4
	cfg.Generation.FailurePolicy = config.PolicyAbort

	images := &flakyImages{Provider: stub.NewProvider(), failOn: map[int32]bool{1: true}}
	result, err := NewPipeline(newTestService(t, cfg, images)).Run(context.Background())

	var postErr *PostError
	if !errors.As(err, &postErr) {
		t.Fatalf("Run() error = %v, want *PostError", err)
	}
	if postErr.Index != 1 || postErr.Stage != model.StageGenerateImage {
		t.Errorf("PostError = %+v", postErr)
	}
	var genErr *llm.GenerationServiceError
	if !errors.As(err, &genErr) {
		t.Errorf("error chain lacks *llm.GenerationServiceError: %v", err)
	}

	if result == nil || !result.Aborted {
		t.Fatalf("result = %+v, want aborted result", result)
	}
	if got := images.calls.Load(); got != 1 {
		t.Errorf("image calls = %d, want 1", got)
	}
	if n := len(listFiles(t, cfg.Output.Dir, "post_*")); n != 0 {
		t.Errorf("post files = %d, want 0", n)
	}
}

func TestPipelineRunUnknownPlatform(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.Platform = "tiktok"

	_, err := NewPipeline(newTestService(t, cfg, stub.NewProvider())).Run(context.Background())

	var platformErr *platform.UnknownPlatformError
	if !errors.As(err, &platformErr) {
		t.Fatalf("Run() error = %v, want *platform.UnknownPlatformError", err)
	}
	if _, statErr := os.Stat(cfg.Output.Dir); !os.IsNotExist(statErr) {
		t.Errorf("output dir created for a failed run: %v", statErr)
	}
}

func TestPipelineRunInsufficientData(t *testing.T) {
	cfg := testConfig(t)
	service := newTestService(t, cfg, stub.NewProvider())
	service.extractor = &fakeExtractor{err: &brand.InsufficientDataError{Samples: 0}}

	_, err := NewPipeline(service).Run(context.Background())
	if !errors.Is(err, brand.ErrInsufficientData) {
		t.Fatalf("Run() error = %v, want ErrInsufficientData", err)
	}
	if _, statErr := os.Stat(cfg.Output.Dir); !os.IsNotExist(statErr) {
		t.Errorf("output dir created for a failed run: %v", statErr)
	}
}

func TestPipelineRunLogsSetupFailure(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	cfg := testConfig(t)
	service := newTestService(t, cfg, stub.NewProvider())
	service.extractor = &fakeExtractor{err: &brand.InsufficientDataError{Samples: 0}}

	if _, err := NewPipeline(service).Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want extraction failure")
	}

	out := buf.String()
	if !strings.Contains(out, "Pipeline stopped") || !strings.Contains(out, "stage="+string(model.StageExtractProfile)) {
		t.Errorf("log = %q, want a Pipeline stopped entry at %s", out, model.StageExtractProfile)
	}
}

func TestPipelineRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.NumPosts = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := newTestService(t, cfg, stub.NewProvider())
	service.text = &cancellingText{cancel: cancel}

	result, err := NewPipeline(service).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(result.Failures) != 0 || len(result.Posts) != 0 {
		t.Errorf("result = %+v, want no posts and no failures", result)
	}
	if n := len(listFiles(t, cfg.Output.Dir, "post_*")); n != 0 {
		t.Errorf("post files = %d, want 0", n)
	}
	if n := len(listFiles(t, cfg.Output.Dir, "run_*.json")); n != 1 {
		t.Errorf("summaries = %d, want 1", n)
	}
}

func TestBuildServiceStubRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenerationParams.Platform = "linkedin"

	service, err := BuildService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}
	defer func() { _ = service.Close() }()

	result, err := NewPipeline(service).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Statistics.Succeeded != cfg.GenerationParams.NumPosts {
		t.Errorf("Succeeded = %d, want %d", result.Statistics.Succeeded, cfg.GenerationParams.NumPosts)
	}
	if result.Profile == nil || result.Profile.SampleCount != 3 {
		t.Errorf("Profile = %+v, want one built from the default samples", result.Profile)
	}
}

func TestNewProvidersRejectUnknown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Providers.Image.Name = config.ProviderGroq

	_, err := NewImageProvider(context.Background(), cfg)
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewImageProvider() error = %v, want *config.ConfigError", err)
	}
}

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	a, b := newSession(now), newSession(now)

	if !strings.HasPrefix(a.runID, "20260304T050607-") {
		t.Errorf("runID = %q", a.runID)
	}
	if a.runID == b.runID {
		t.Errorf("two sessions share run id %q", a.runID)
	}
}

func TestBuildStatistics(t *testing.T) {
	outcomes := []postOutcome{
		{record: &model.PostRecord{Index: 1, ImagePath: "a.jpg"}},
		{failure: &model.PostFailure{Index: 2, Stage: model.StagePersist}},
		{},
		{record: &model.PostRecord{Index: 4, ImagePath: "b.jpg"}},
	}

	posts, failures := mergeOutcomes(outcomes)
	stats := buildStatistics(len(outcomes), posts, failures)

	want := model.Statistics{Requested: 4, Succeeded: 2, Failed: 1, PostsWithVisuals: 2}
	if stats != want {
		t.Errorf("Statistics = %+v, want %+v", stats, want)
	}
	if posts[1].Index != 4 {
		t.Errorf("posts out of order: %+v", posts)
	}
}
