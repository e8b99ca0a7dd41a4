package nlp

import (
	"slices"
	"testing"
)

func TestDetectTone(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Therefore, we expanded. Moreover, sales grew.", ToneProfessional},
		{"Hey, this is so cool!", ToneCasual},
		{"We hereby announce, accordingly, our results.", ToneFormal},
		{"Thanks for stopping by, you're always welcome!", ToneFriendly},
		{"Plain statement about products.", ""},
		{"They said nothing.", ""},
		// one marker each: the earlier tone wins
		{"Awesome, thanks!", ToneCasual},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, _ := DetectTone(tt.text)
			if got != tt.want {
				t.Errorf("DetectTone(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectToneCounts(t *testing.T) {
	_, counts := DetectTone("Hey, thanks and please enjoy. Yeah!")
	if counts[ToneCasual] != 2 {
		t.Errorf("casual = %d, want 2", counts[ToneCasual])
	}
	if counts[ToneFriendly] != 2 {
		t.Errorf("friendly = %d, want 2", counts[ToneFriendly])
	}
	if counts[ToneFormal] != 0 {
		t.Errorf("formal = %d, want 0", counts[ToneFormal])
	}
}

func TestTones(t *testing.T) {
	want := []string{ToneProfessional, ToneCasual, ToneFormal, ToneFriendly}
	if !slices.Equal(Tones(), want) {
		t.Errorf("Tones() = %v, want %v", Tones(), want)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	a := NewAnalyzer()

	pos, err := a.Analyze("I love this wonderful, amazing product!")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if pos.Sentiment.Compound <= 0 {
		t.Errorf("positive text compound = %v, want > 0", pos.Sentiment.Compound)
	}

	neg, err := a.Analyze("This is a terrible, awful experience.")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if neg.Sentiment.Compound >= 0 {
		t.Errorf("negative text compound = %v, want < 0", neg.Sentiment.Compound)
	}
}

func TestAnalyzeKeywordsAndCounts(t *testing.T) {
	a := NewAnalyzer()

	got, err := a.Analyze("Excited to announce our new product line! 🚀 #Innovation #Quality")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	for _, want := range []string{"product", "#innovation", "#quality"} {
		if !slices.Contains(got.Keywords, want) {
			t.Errorf("Keywords = %v, missing %q", got.Keywords, want)
		}
	}
	if got.Emojis != 1 {
		t.Errorf("Emojis = %d, want 1", got.Emojis)
	}
	if got.Exclamations != 1 || got.Questions != 0 {
		t.Errorf("Exclamations/Questions = %d/%d, want 1/0", got.Exclamations, got.Questions)
	}
	if got.Sentences < 1 {
		t.Errorf("Sentences = %d, want >= 1", got.Sentences)
	}
	if len(got.Words) == 0 || got.WordChars == 0 {
		t.Errorf("Words = %v, WordChars = %d", got.Words, got.WordChars)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	got, err := NewAnalyzer().Analyze("")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(got.Words) != 0 || got.Sentences != 0 || got.Tone != "" {
		t.Errorf("Analyze(\"\") = %+v", got)
	}
}
