// Package letter holds the cover-letter domain constants shared by the API
// features: tone, theme, and presentation template enums plus the
// downloadable artifact constants.
package letter

import "strings"

// Tones adjust the writing style requested from the model.
const (
	ToneProfessional = "Professional"
	ToneFriendly     = "Friendly"
	ToneFormal       = "Formal"
	ToneCasual       = "Casual"
)

// Themes are client-side presentation hints; they never change letter text.
const (
	ThemeLight = "Light"
	ThemeDark  = "Dark"
)

// Templates select the cosmetic framing applied to the displayed letter.
const (
	TemplateClassic  = "Classic"
	TemplateModern   = "Modern"
	TemplateCreative = "Creative"
)

const (
	// DefaultIndustry is used when the submission leaves industry blank.
	DefaultIndustry = "Technology"

	// DefaultTone is used when the submission leaves tone blank.
	DefaultTone = ToneProfessional
)

// Artifact constants for the download endpoints.
const (
	FileName    = "cover_letter.txt"
	ContentType = "text/plain; charset=utf-8"
)

// Tones lists the accepted tone values in display order.
func Tones() []string {
	return []string{ToneProfessional, ToneFriendly, ToneFormal, ToneCasual}
}

// Themes lists the accepted theme values in display order.
func Themes() []string {
	return []string{ThemeLight, ThemeDark}
}

// Templates lists the accepted template values in display order.
func Templates() []string {
	return []string{TemplateClassic, TemplateModern, TemplateCreative}
}

// NormalizeIndustry trims the industry input and applies the default.
func NormalizeIndustry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultIndustry
	}
	return trimmed
}

// NormalizeTone trims the tone input and applies the default.
func NormalizeTone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultTone
	}
	return trimmed
}
