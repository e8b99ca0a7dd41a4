package platform

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "…"

type Spec struct {
	Name          string `json:"name"`
	AspectW       int    `json:"aspect_w"`
	AspectH       int    `json:"aspect_h"`
	Width         int    `json:"width_px"`
	Height        int    `json:"height_px"`
	MaxTextLength int    `json:"max_text_length"`
}

// AspectRatio formats the ratio the way platforms document it, e.g. "1.91:1".
func (s Spec) AspectRatio() string {
	if s.AspectW%s.AspectH == 0 || s.AspectH == 1 {
		return fmt.Sprintf("%d:%d", s.AspectW/s.AspectH, 1)
	}
	if s.AspectH == 100 {
		return fmt.Sprintf("%.2f:1", float64(s.AspectW)/100)
	}
	return fmt.Sprintf("%d:%d", s.AspectW, s.AspectH)
}

type UnknownPlatformError struct {
	Name string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform %q (supported: %s)", e.Name, strings.Join(Names(), ", "))
}

var specs = []Spec{
	{Name: "instagram", AspectW: 1, AspectH: 1, Width: 1080, Height: 1080, MaxTextLength: 2200},
	{Name: "twitter", AspectW: 16, AspectH: 9, Width: 1200, Height: 675, MaxTextLength: 280},
	{Name: "linkedin", AspectW: 191, AspectH: 100, Width: 1200, Height: 627, MaxTextLength: 3000},
}

func Lookup(name string) (Spec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range specs {
		if s.Name == key {
			return s, nil
		}
	}
	return Spec{}, &UnknownPlatformError{Name: name}
}

func Names() []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

func All() []Spec {
	return append([]Spec(nil), specs...)
}

// FitText returns text unchanged when it is within limit runes, otherwise it
// cuts at the last word boundary that leaves room for an ellipsis.
func FitText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	budget := limit - utf8.RuneCountInString(ellipsis)
	if budget <= 0 {
		return string(runes[:limit])
	}

	cut := budget
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = budget
	}

	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + ellipsis
}
