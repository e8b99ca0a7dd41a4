package brand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"brandpost/internal/app/model"
	"brandpost/internal/nlp"
)

const MaxStyleKeywords = 10

var ErrInsufficientData = errors.New("insufficient brand data")

type InsufficientDataError struct {
	Samples int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient brand data: %d samples given, none contain text", e.Samples)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

type Analyzer interface {
	Analyze(text string) (nlp.Analysis, error)
}

type Guidelines struct {
	Colors []string
	Style  string
	Tone   string
}

type Extractor struct {
	analyzer   Analyzer
	guidelines Guidelines
}

func NewExtractor(analyzer Analyzer, guidelines Guidelines) *Extractor {
	if guidelines.Tone == "" {
		guidelines.Tone = nlp.ToneProfessional
	}
	return &Extractor{analyzer: analyzer, guidelines: guidelines}
}

type aggregate struct {
	n int

	toneCounts map[string]int
	toneOrder  []string

	compound, positive, negative, neutral float64

	keywordCounts map[string]int
	keywordOrder  []string

	markerCounts map[string]int

	words, wordChars, sentences int
	unique                      map[string]struct{}
	emojis, questions, exclaims int
}

func (e *Extractor) Extract(ctx context.Context, samples []string) (*model.BrandProfile, error) {
	agg := &aggregate{
		toneCounts:    make(map[string]int),
		keywordCounts: make(map[string]int),
		markerCounts:  make(map[string]int),
		unique:        make(map[string]struct{}),
	}

	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(sample)
		if text == "" {
			slog.Debug("Skipping blank sample", "sample", i)
			continue
		}

		a, err := e.analyzer.Analyze(text)
		if err != nil {
			return nil, fmt.Errorf("analyze sample %d: %w", i, err)
		}
		e.add(agg, a)
	}

	if agg.n == 0 {
		return nil, &InsufficientDataError{Samples: len(samples)}
	}

	profile := e.build(agg)
	slog.Info("Brand profile extracted",
		"samples", profile.SampleCount,
		"tone", profile.Tone,
		"sentiment", fmt.Sprintf("%.3f", profile.Sentiment),
		"keywords", len(profile.StyleKeywords))

	return profile, nil
}

func (e *Extractor) add(agg *aggregate, a nlp.Analysis) {
	agg.n++

	tone := a.Tone
	if tone == "" {
		tone = e.guidelines.Tone
	}
	if _, seen := agg.toneCounts[tone]; !seen {
		agg.toneOrder = append(agg.toneOrder, tone)
	}
	agg.toneCounts[tone]++

	agg.compound += a.Sentiment.Compound
	agg.positive += a.Sentiment.Positive
	agg.negative += a.Sentiment.Negative
	agg.neutral += a.Sentiment.Neutral

	for _, kw := range a.Keywords {
		if _, seen := agg.keywordCounts[kw]; !seen {
			agg.keywordOrder = append(agg.keywordOrder, kw)
		}
		agg.keywordCounts[kw]++
	}

	for tone, c := range a.ToneCounts {
		agg.markerCounts[tone] += c
	}

	agg.words += len(a.Words)
	agg.wordChars += a.WordChars
	agg.sentences += a.Sentences
	for _, w := range a.Words {
		agg.unique[w] = struct{}{}
	}
	agg.emojis += a.Emojis
	agg.questions += a.Questions
	agg.exclaims += a.Exclamations
}

func (e *Extractor) build(agg *aggregate) *model.BrandProfile {
	n := float64(agg.n)

	return &model.BrandProfile{
		Tone:          majority(agg.toneOrder, agg.toneCounts),
		Sentiment:     clamp(agg.compound/n, -1, 1),
		StyleKeywords: topKeywords(agg.keywordOrder, agg.keywordCounts, MaxStyleKeywords),
		Colors:        append([]string(nil), e.guidelines.Colors...),
		Style:         e.guidelines.Style,
		SentimentBreakdown: model.SentimentBreakdown{
			Positive: agg.positive / n,
			Negative: agg.negative / n,
			Neutral:  agg.neutral / n,
			Compound: agg.compound / n,
		},
		StyleMetrics: model.StyleMetrics{
			AvgSentenceLength:  ratio(agg.words, agg.sentences),
			VocabularyRichness: ratio(len(agg.unique), agg.words),
			EmojiUsage:         float64(agg.emojis) / n,
		},
		LanguageMetrics: model.LanguageMetrics{
			AvgPostLength:        float64(agg.words) / n,
			AvgWordLength:        ratio(agg.wordChars, agg.words),
			QuestionFrequency:    float64(agg.questions) / n,
			ExclamationFrequency: float64(agg.exclaims) / n,
		},
		ToneScores:  normalize(agg.markerCounts),
		SampleCount: agg.n,
	}
}

// majority picks the most frequent label; order holds labels by first
// occurrence so ties resolve to the earliest.
func majority(order []string, counts map[string]int) string {
	best, bestCount := "", 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

func topKeywords(order []string, counts map[string]int, limit int) []string {
	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func normalize(counts map[string]int) map[string]float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	scores := make(map[string]float64, len(nlp.Tones()))
	for _, tone := range nlp.Tones() {
		if total > 0 {
			scores[tone] = float64(counts[tone]) / float64(total)
		} else {
			scores[tone] = 0
		}
	}
	return scores
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
