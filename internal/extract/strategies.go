package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/i474232898/skimeister/internal/common"
)

// strategy tries to read one value from a document.
type strategy[T any] func(*goquery.Document) (T, bool)

// firstOf runs strategies in order and returns the first success.
func firstOf[T any](doc *goquery.Document, strategies ...strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func headingText(tag string) strategy[string] {
	return func(doc *goquery.Document) (string, bool) {
		text := common.CollapseSpace(doc.Find(tag).First().Text())
		return text, text != ""
	}
}

func metaProperty(property string) strategy[string] {
	return func(doc *goquery.Document) (string, bool) {
		content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
		content = common.CollapseSpace(content)
		return content, content != ""
	}
}

// ownText concatenates the direct text children of n, ignoring descendants.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// walkText visits text nodes depth first until fn returns false.
// Script and style contents are skipped.
func walkText(n *html.Node, fn func(string) bool) bool {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return true
	}
	if n.Type == html.TextNode {
		return fn(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkText(c, fn) {
			return false
		}
	}
	return true
}

// findOwnText returns the first element under sel whose own text matches re.
func findOwnText(sel *goquery.Selection, re *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	sel.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if re.MatchString(ownText(s.Nodes[0])) {
			found = s
			return false
		}
		return true
	})
	return found
}

// labeledInt reads the integer that follows a label such as "Mountain:".
// The value is taken from the label element's own text after the label, or
// else from its next sibling element.
func labeledInt(scope *goquery.Selection, label *regexp.Regexp) (int, bool) {
	el := findOwnText(scope, label)
	if el == nil {
		return 0, false
	}
	own := ownText(el.Nodes[0])
	if loc := label.FindStringIndex(own); loc != nil {
		if n, ok := common.FirstInt(own[loc[1]:]); ok {
			return n, true
		}
	}
	return common.FirstInt(el.Next().Text())
}
