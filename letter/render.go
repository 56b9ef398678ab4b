package letter

import "strings"

const (
	modernRuleWidth  = 46
	creativeRuleMark = "*  *  *"
)

// Render applies the template's cosmetic framing to the letter text.
// The transform is deterministic and display-only: callers must keep the
// raw text as the stored and downloadable content. Classic and unknown
// templates return the text unchanged.
func Render(text, tpl string) string {
	switch tpl {
	case TemplateModern:
		return renderModern(text)
	case TemplateCreative:
		return renderCreative(text)
	default:
		return text
	}
}

func renderModern(text string) string {
	var b strings.Builder
	b.WriteString("COVER LETTER\n")
	b.WriteString(strings.Repeat("=", modernRuleWidth))
	b.WriteString("\n\n")
	b.WriteString(text)
	return b.String()
}

func renderCreative(text string) string {
	var b strings.Builder
	b.WriteString(creativeRuleMark)
	b.WriteString("\n\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(creativeRuleMark)
	return b.String()
}
