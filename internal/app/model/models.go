package model

import (
	"time"

	"brandpost/internal/platform"
)

const (
	StageInit           Stage = "init"
	StageExtractProfile Stage = "extract_profile"
	StageGenerateText   Stage = "generate_text"
	StageGenerateImage  Stage = "generate_image"
	StagePackage        Stage = "package"
	StagePersist        Stage = "persist"
	StageDone           Stage = "done"
	StageError          Stage = "error"
)

type Stage string

type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Compound float64 `json:"compound"`
}

type StyleMetrics struct {
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	VocabularyRichness float64 `json:"vocabulary_richness"`
	EmojiUsage         float64 `json:"emoji_usage"`
}

type LanguageMetrics struct {
	AvgPostLength        float64 `json:"avg_post_length"`
	AvgWordLength        float64 `json:"avg_word_length"`
	QuestionFrequency    float64 `json:"question_frequency"`
	ExclamationFrequency float64 `json:"exclamation_frequency"`
}

// BrandProfile is derived once per run and shared read-only by every post.
type BrandProfile struct {
	Tone               string             `json:"tone"`
	Sentiment          float64            `json:"sentiment"`
	StyleKeywords      []string           `json:"style_keywords"`
	Colors             []string           `json:"colors"`
	Style              string             `json:"style"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
	StyleMetrics       StyleMetrics       `json:"style_metrics"`
	LanguageMetrics    LanguageMetrics    `json:"language_metrics"`
	ToneScores         map[string]float64 `json:"tone_scores"`
	SampleCount        int                `json:"sample_count"`
}

type VisualPreferences struct {
	ImageStyle  string `json:"image_style"`
	Composition string `json:"composition"`
}

type GenerationParams struct {
	NumPosts       int      `json:"num_posts"`
	PostType       string   `json:"post_type"`
	TargetAudience string   `json:"target_audience"`
	Platform       string   `json:"platform"`
	ContentGoals   []string `json:"content_goals,omitempty"`
}

type TextPost struct {
	Body        string    `json:"body"`
	Platform    string    `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`
	Prompt      string    `json:"-"`
	Attempts    int       `json:"-"`
	Truncated   bool      `json:"-"`
}

type ImageAsset struct {
	Data   []byte `json:"-"`
	Width  int    `json:"width_px"`
	Height int    `json:"height_px"`
	Format string `json:"format"`
	Prompt string `json:"prompt"`
}

type PostMetadata struct {
	Profile       BrandProfile     `json:"brand_profile"`
	Params        GenerationParams `json:"generation_params"`
	Platform      platform.Spec    `json:"platform_spec"`
	TextPrompt    string           `json:"text_prompt"`
	ImagePrompt   string           `json:"image_prompt"`
	TextProvider  string           `json:"text_provider"`
	ImageProvider string           `json:"image_provider"`
	TextAttempts  int              `json:"text_attempts"`
	Truncated     bool             `json:"truncated"`
}

type GeneratedPost struct {
	ID       string
	RunID    string
	Index    int
	Text     TextPost
	Image    ImageAsset
	Metadata PostMetadata
}

type PostRecord struct {
	ID        string   `json:"id"`
	Index     int      `json:"index"`
	JSONPath  string   `json:"json_path"`
	ImagePath string   `json:"image_path"`
	Mirrors   []string `json:"mirrors,omitempty"`
}

type PostFailure struct {
	Index int    `json:"index"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

type Statistics struct {
	Requested        int `json:"requested"`
	Succeeded        int `json:"succeeded"`
	Failed           int `json:"failed"`
	PostsWithVisuals int `json:"posts_with_visuals"`
}

type RunResult struct {
	RunID      string        `json:"run_id"`
	Platform   string        `json:"platform"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Profile    *BrandProfile `json:"brand_profile,omitempty"`
	Posts      []PostRecord  `json:"posts"`
	Failures   []PostFailure `json:"failures"`
	Statistics Statistics    `json:"statistics"`
	Aborted    bool          `json:"aborted,omitempty"`
}
