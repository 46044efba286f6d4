package refsource

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	headingSelector   = "h1, h2, h3, h4, h5, h6"
	containerSelector = "#references, .references, #bibliography, .bibliography, .ref-list, .csl-bib-body"
)

// ExtractHTML returns the entries of the reference list in an HTML page,
// one per line. It looks, in order, for the content following a
// "References" heading, for a known reference-list container, and finally
// for every list item or paragraph in the body.
func ExtractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	doc.Find("script, style, nav, header, footer").Remove()

	var items []string
	doc.Find(headingSelector).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !headingText.MatchString(h.Text()) {
			return true
		}
		items = entries(h.NextUntil(headingSelector))
		return len(items) == 0
	})

	if len(items) == 0 {
		items = entries(doc.Find(containerSelector))
	}
	if len(items) == 0 {
		items = entries(doc.Find("body"))
	}

	return strings.Join(items, "\n"), nil
}

// entries returns the list items in sel, or its paragraphs if it has no
// list items, or its non-blank text lines.
func entries(sel *goquery.Selection) []string {
	var out []string
	for _, tag := range []string{"li", "p", ".csl-entry"} {
		sel.Find(tag).AddSelection(sel.Filter(tag)).Each(func(_ int, item *goquery.Selection) {
			if text := collapseSpace(item.Text()); text != "" {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			return out
		}
	}

	for _, line := range strings.Split(sel.Text(), "\n") {
		if line = collapseSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
