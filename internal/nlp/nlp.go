package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/jonreiter/govader"
)

const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneFormal       = "formal"
	ToneFriendly     = "friendly"
)

type toneMarkers struct {
	tone     string
	patterns []*regexp.Regexp
}

// Order matters: ties between tones go to the earlier entry.
var tones = []toneMarkers{
	{ToneProfessional, compileMarkers("therefore", "consequently", "furthermore", "moreover")},
	{ToneCasual, compileMarkers("hey", "cool", "awesome", "yeah")},
	{ToneFormal, compileMarkers("hereby", "accordingly", "pursuant", "whilst")},
	{ToneFriendly, compileMarkers("thanks", "please", "welcome", "happy")},
}

var hashtagRegex = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

func compileMarkers(words ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return patterns
}

// Tones lists the tone labels in tie-break order.
func Tones() []string {
	names := make([]string, len(tones))
	for i, t := range tones {
		names[i] = t.tone
	}
	return names
}

type Sentiment struct {
	Positive float64
	Negative float64
	Neutral  float64
	Compound float64
}

type Analysis struct {
	Sentiment Sentiment
	// Keywords holds lowercased nouns, proper nouns and hashtags in text order.
	Keywords []string
	// Tone is empty when no marker matched.
	Tone       string
	ToneCounts map[string]int

	Words        []string
	WordChars    int
	Sentences    int
	Emojis       int
	Questions    int
	Exclamations int
}

type Analyzer struct {
	sentiment *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{sentiment: govader.NewSentimentIntensityAnalyzer()}
}

func (a *Analyzer) Analyze(text string) (Analysis, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return Analysis{}, fmt.Errorf("tokenize text: %w", err)
	}

	scores := a.sentiment.PolarityScores(text)
	result := Analysis{
		Sentiment: Sentiment{
			Positive: scores.Positive,
			Negative: scores.Negative,
			Neutral:  scores.Neutral,
			Compound: scores.Compound,
		},
		Sentences:    len(doc.Sentences()),
		Emojis:       countEmojis(text),
		Questions:    strings.Count(text, "?"),
		Exclamations: strings.Count(text, "!"),
	}
	result.Tone, result.ToneCounts = DetectTone(text)

	for _, tok := range doc.Tokens() {
		if !isWord(tok.Text) || strings.HasPrefix(tok.Text, "#") {
			continue
		}
		lower := strings.ToLower(tok.Text)
		result.Words = append(result.Words, lower)
		result.WordChars += len([]rune(tok.Text))

		if strings.HasPrefix(tok.Tag, "NN") && len([]rune(lower)) > 1 {
			result.Keywords = append(result.Keywords, lower)
		}
	}
	for _, tag := range hashtagRegex.FindAllString(text, -1) {
		result.Keywords = append(result.Keywords, strings.ToLower(tag))
	}
	if result.Sentences == 0 && len(result.Words) > 0 {
		result.Sentences = 1
	}

	return result, nil
}

// DetectTone scores text against each tone's marker words and returns the
// best label, or "" when nothing matched.
func DetectTone(text string) (string, map[string]int) {
	lower := strings.ToLower(text)
	counts := make(map[string]int, len(tones))

	best, bestScore := "", 0
	for _, t := range tones {
		score := 0
		for _, p := range t.patterns {
			if p.MatchString(lower) {
				score++
			}
		}
		counts[t.tone] = score
		if score > bestScore {
			best, bestScore = t.tone, score
		}
	}
	return best, counts
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func countEmojis(text string) int {
	n := 0
	for _, r := range text {
		if r > unicode.MaxASCII && unicode.IsSymbol(r) {
			n++
		}
	}
	return n
}
