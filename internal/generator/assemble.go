package generator

import (
	"fmt"
	"regexp"
	"strings"
)

const faqSectionID = "faq"

var (
	firstSectionRe = regexp.MustCompile(`(?is)<section[\s\S]*?</section>`)
	sectionStartRe = regexp.MustCompile(`(?i)^<section`)
	sectionOpenRe  = regexp.MustCompile(`(?i)<section[^>]*>`)
	h2Re           = regexp.MustCompile(`(?i)<h2>`)
)

// normalizeSection guarantees a well-formed, independently addressable block:
// exactly one <section> wrapper carrying the outline id, with an <h2> echoing
// the section title. Whatever liberties the model took with the format, the
// output of this function is what assembly and anchor navigation rely on.
func normalizeSection(html, id, title string) string {
	html = strings.TrimSpace(html)

	// If the model returned surrounding prose or several sections, keep the
	// first <section>…</section> block.
	if m := firstSectionRe.FindString(html); m != "" {
		html = m
	}

	if !sectionStartRe.MatchString(html) {
		return fmt.Sprintf("<section id=%q>\n  <h2>%s</h2>\n%s\n</section>",
			escapeAttr(id), escapeText(title), html)
	}

	idRe := regexp.MustCompile(`id=["']` + regexp.QuoteMeta(id) + `["']`)
	if !idRe.MatchString(html) {
		html = replaceFirst(html, regexp.MustCompile(`(?i)<section\b`), func(string) string {
			return fmt.Sprintf(`<section id=%q`, escapeAttr(id))
		})
	}

	if !h2Re.MatchString(html) {
		html = replaceFirst(html, sectionOpenRe, func(open string) string {
			return open + "\n  <h2>" + escapeText(title) + "</h2>\n"
		})
	}

	return html
}

// assemble is pure string composition over the validated outline and section
// outputs: chapo, anchored table of contents, sections in outline order, FAQ
// last. Nothing is regenerated here.
func assemble(chapoHTML string, sections []Section, htmlByID map[string]string) string {
	var nav []Section
	for _, s := range sections {
		if s.ID != faqSectionID {
			nav = append(nav, s)
		}
	}

	var navItems strings.Builder
	for _, s := range nav {
		fmt.Fprintf(&navItems, `
        <li>
          <a href="#%s" class="flex items-center gap-2 px-2 py-1 rounded-lg hover:bg-base-300">
            <span class="text-lg opacity-70">›</span> %s
          </a>
        </li>`, escapeAttr(s.ID), escapeText(s.Title))
	}

	navHTML := fmt.Sprintf(`<nav aria-label="Sommaire" class="not-prose mt-8">
  <div class="card bg-base-200 shadow-sm">
    <div class="card-body p-4">
      <h3 class="card-title text-sm mb-3">Sommaire</h3>
      <ul class="menu menu-sm gap-2">%s
      </ul>
    </div>
  </div>
</nav>`, navItems.String())

	var bodies []string
	for _, s := range nav {
		if html := htmlByID[s.ID]; html != "" {
			bodies = append(bodies, html)
		}
	}

	separator := "\n\n<hr class=\"border-base-300\" />\n\n"
	parts := []string{
		strings.TrimSpace(chapoHTML),
		navHTML,
		`<hr class="border-base-300" />`,
		strings.Join(bodies, separator),
	}
	if faq := htmlByID[faqSectionID]; faq != "" {
		parts = append(parts, `<hr class="border-base-300" />`, faq)
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// replaceFirst rewrites only the first match; the stdlib regexp replaces
// every one, and replacement text must not go through template expansion.
func replaceFirst(s string, re *regexp.Regexp, repl func(match string) string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl(s[loc[0]:loc[1]]) + s[loc[1]:]
}

func escapeAttr(s string) string {
	return strings.NewReplacer(`"`, "&quot;", "<", "&lt;").Replace(s)
}

func escapeText(s string) string {
	return strings.ReplaceAll(s, "<", "&lt;")
}
