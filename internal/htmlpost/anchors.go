package htmlpost

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
)

// CitationPrefix is the anchor name prefix of reference list entries.
const CitationPrefix = "cite_"

// Anchors lists the citation links and targets found in an HTML fragment.
type Anchors struct {
	// Links are in-page hrefs (without '#') pointing at citation entries, in document order.
	Links []string
	// Targets are id/name values of citation entries.
	Targets map[string]struct{}
}

// Missing returns the links whose target does not exist, in document order.
func (a Anchors) Missing() []string {
	var out []string
	for _, l := range a.Links {
		if _, ok := a.Targets[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// CitationAnchors parses an HTML fragment and collects citation links and targets.
func CitationAnchors(fragment string) (Anchors, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return Anchors{}, errors.WrapError(err, errors.CategoryRender, "failed to parse HTML").Build()
	}

	res := Anchors{Targets: map[string]struct{}{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				switch attr.Key {
				case "href":
					if target, ok := strings.CutPrefix(attr.Val, "#"); ok && strings.HasPrefix(target, CitationPrefix) {
						res.Links = append(res.Links, target)
					}
				case "id", "name":
					if strings.HasPrefix(attr.Val, CitationPrefix) {
						res.Targets[attr.Val] = struct{}{}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return res, nil
}
