// Package transform converts generated HTML fragments into the typed JSON
// node tree consumed downstream, and strips markdown artifacts the
// generator leaves inside text nodes.
package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLToJSON parses an HTML fragment and renders it as a JSON array of
// typed nodes: elements carry tag, attributes and children; text nodes
// carry their text. Whitespace-only text nodes are dropped, and a data-ui
// attribute is promoted to a top-level "ui" field.
func HTMLToJSON(htmlText string) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	root := doc.Find("body")
	var result []map[string]interface{}
	for _, sel := range root.Nodes {
		for child := sel.FirstChild; child != nil; child = child.NextSibling {
			if node := nodeToMap(child); node != nil {
				result = append(result, node)
			}
		}
	}
	if result == nil {
		result = []map[string]interface{}{}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize node tree: %w", err)
	}
	return data, nil
}

func nodeToMap(node *html.Node) map[string]interface{} {
	switch node.Type {
	case html.TextNode:
		if strings.TrimSpace(node.Data) == "" {
			return nil
		}
		return map[string]interface{}{
			"type": "text",
			"text": node.Data,
		}

	case html.ElementNode:
		data := map[string]interface{}{
			"type": "element",
			"tag":  node.Data,
		}

		attrs := make(map[string]string)
		for _, attr := range node.Attr {
			if attr.Key == "data-ui" {
				data["ui"] = attr.Val
				continue
			}
			attrs[attr.Key] = attr.Val
		}
		if len(attrs) > 0 {
			data["attrs"] = attrs
		}

		var children []map[string]interface{}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if c := nodeToMap(child); c != nil {
				children = append(children, c)
			}
		}
		if len(children) > 0 {
			data["children"] = children
		}
		return data

	default:
		return nil
	}
}
