package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const sectionHeadingTag = "h3"

// section is the content block of a level-3 heading: the first element that
// follows the heading in document order together with its descendants. A
// nested level-3 heading ends the block early.
type section struct {
	heading string
	body    *goquery.Selection
}

// sections splits the document at every level-3 heading.
func sections(doc *goquery.Document) []section {
	elements := elementsInOrder(doc.Nodes)
	var out []section
	for i, n := range elements {
		if n.Data != sectionHeadingTag {
			continue
		}
		out = append(out, section{
			heading: strings.TrimSpace(nodeText(n)),
			body:    doc.FindNodes(sectionBody(n, elements[i+1:])...),
		})
	}
	return out
}

// sectionBody collects the content block that follows heading from the
// remaining elements.
func sectionBody(heading *html.Node, rest []*html.Node) []*html.Node {
	var content *html.Node
	var body []*html.Node
	for _, next := range rest {
		if next.Data == sectionHeadingTag {
			break
		}
		if isAncestor(heading, next) {
			continue
		}
		if content == nil {
			content = next
		} else if !isAncestor(content, next) {
			break
		}
		body = append(body, next)
	}
	return body
}

// elementsInOrder lists every element node below roots in document order.
func elementsInOrder(roots []*html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

func isAncestor(ancestor, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// nodeText concatenates the text nodes below n, like goquery's Text.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// findLabel returns the first element in labels whose trimmed text equals label.
func findLabel(labels *goquery.Selection, label string) (*html.Node, bool) {
	var found *html.Node
	labels.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == label {
			found = s.Get(0)
			return false
		}
		return true
	})
	return found, found != nil
}

// textAfterLabel returns the first text node that follows the label as a
// sibling. Element siblings in between are skipped.
func textAfterLabel(labels *goquery.Selection, label string) (string, bool) {
	n, ok := findLabel(labels, label)
	if !ok {
		return "", false
	}
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.TextNode {
			return strings.TrimSpace(s.Data), true
		}
	}
	return "", false
}

// siblingsAfterLabel returns the text of every following sibling element
// named tag, in order.
func siblingsAfterLabel(labels *goquery.Selection, label, tag string) ([]string, bool) {
	n, ok := findLabel(labels, label)
	if !ok {
		return nil, false
	}
	out := make([]string, 0)
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == tag {
			out = append(out, strings.TrimSpace(nodeText(s)))
		}
	}
	return out, true
}

func trimmedTexts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
