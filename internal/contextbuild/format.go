package contextbuild

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatForPrompt renders ctx as the XML-like activation block injected
// into the assistant's prompt. A nil context yields an empty string.
func FormatForPrompt(ctx *Context) string {
	if ctx == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, `<intent_context id=%q name=%q status=%q`, ctx.ID, ctx.Name, string(ctx.Status))
	if ctx.Version != 0 {
		fmt.Fprintf(&b, ` version=%q`, strconv.Itoa(ctx.Version))
	}
	b.WriteString(">\n")

	b.WriteString("  <scope>")
	for _, p := range ctx.Scope {
		b.WriteString("<pattern>" + escapeXML(p) + "</pattern>")
	}
	b.WriteString("</scope>\n")

	b.WriteString("  <constraints>")
	for _, c := range ctx.Constraints {
		b.WriteString("<constraint>" + escapeXML(c) + "</constraint>")
	}
	b.WriteString("</constraints>\n")

	b.WriteString("  <acceptance_criteria>")
	for _, a := range ctx.AcceptanceCriteria {
		b.WriteString("<criterion>" + escapeXML(a) + "</criterion>")
	}
	b.WriteString("</acceptance_criteria>\n")

	if len(ctx.RelatedFiles) > 0 {
		b.WriteString("  <related_files>")
		for _, f := range ctx.RelatedFiles {
			b.WriteString(`<file path="` + escapeXML(f) + `"/>`)
		}
		b.WriteString("</related_files>\n")
	}

	if len(ctx.SpecExcerpts) > 0 {
		b.WriteString("  <related_specs>")
		for _, e := range ctx.SpecExcerpts {
			b.WriteString("<spec_excerpt>" + escapeXML(e.Content) + "</spec_excerpt>")
		}
		b.WriteString("</related_specs>\n")
	}

	b.WriteString("</intent_context>")
	return b.String()
}

var xmlEscapes = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscapes.Replace(s)
}
