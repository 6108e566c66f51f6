package akinator

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// gamePage holds what a new game needs from the /game HTML.
type gamePage struct {
	Question  string
	Session   string
	Signature string
}

// parseGamePage extracts the first question from #question-label and the
// session credentials from the hidden inputs of form#askSoundlike.
func parseGamePage(r io.Reader) (gamePage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return gamePage{}, err
	}

	var page gamePage
	var visit func(n *html.Node, inForm bool)
	visit = func(n *html.Node, inForm bool) {
		if n.Type == html.ElementNode {
			if page.Question == "" && attr(n, "id") == "question-label" {
				page.Question = strings.TrimSpace(textContent(n))
			}

			if n.Data == "form" && attr(n, "id") == "askSoundlike" {
				inForm = true
			}

			if inForm && n.Data == "input" {
				switch attr(n, "name") {
				case "session":
					page.Session = attr(n, "value")
				case "signature":
					page.Signature = attr(n, "value")
				}
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			visit(child, inForm)
		}
	}
	visit(doc, false)

	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
