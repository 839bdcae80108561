package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	boldPattern       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*([^*]+?)\*`)
	codeFencePattern  = regexp.MustCompile("```[a-zA-Z0-9]*\n?")
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
	bulletPattern     = regexp.MustCompile(`(?m)^\s*\*\s+`)
	headingPattern    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// CleanText strips the markdown formatting the generator tends to leave
// in prose: bold and italic markers, code fences, inline backticks,
// leading bullet stars and heading hashes. Runs of blank lines collapse
// to a single blank line.
func CleanText(text string) string {
	text = codeFencePattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	text = bulletPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CleanDocument walks a JSON node tree produced by HTMLToJSON and applies
// CleanText to every text node in place, returning the re-serialized
// document.
func CleanDocument(data []byte) ([]byte, error) {
	var nodes []map[string]interface{}
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse node tree: %w", err)
	}
	for _, node := range nodes {
		cleanNode(node)
	}
	out, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize node tree: %w", err)
	}
	return out, nil
}

func cleanNode(node map[string]interface{}) {
	if node["type"] == "text" {
		if text, ok := node["text"].(string); ok {
			node["text"] = CleanText(text)
		}
		return
	}
	children, ok := node["children"].([]interface{})
	if !ok {
		return
	}
	for _, child := range children {
		if m, ok := child.(map[string]interface{}); ok {
			cleanNode(m)
		}
	}
}
