// Package expand turns hierarchical screen documents produced by the remote
// generator into ordered, deduplicated generation jobs, and drives the
// breadth-first traversal that feeds those jobs back through the automation.
package expand

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Node types with expansion semantics. Unknown types are ignored, never
// rejected; the remote generator is free to add node kinds.
const (
	NodeSection = "section"
	NodeCard    = "card"
)

// Input type names
const (
	InputEnum    = "enum"
	InputString  = "string"
	InputNumber  = "number"
	InputBoolean = "boolean"
)

// Screen is one state of the generated content tree. It is immutable once
// received; each generation produces a child Screen that supersedes it.
type Screen struct {
	Nodes []Node `json:"nodes"`
	Next  *Next  `json:"next,omitempty"`
}

// Node is one typed entry of a screen document
type Node struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Expand  *ExpandSpec `json:"expand,omitempty"`
	Actions []Action    `json:"actions,omitempty"`
}

// ExpandSpec declares how a section node expands into prompts
type ExpandSpec struct {
	PromptTemplate string  `json:"prompt_template"`
	Inputs         []Input `json:"inputs,omitempty"`
}

// Input declares one templated parameter of an expansion
type Input struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Options []interface{} `json:"options,omitempty"`
}

// Enumerable reports whether the input fans out over explicit options
func (i Input) Enumerable() bool {
	return i.Type == InputEnum && len(i.Options) > 0
}

// Next carries the document-level follow-up declarations
type Next struct {
	Prompts    []PromptSpec `json:"prompts,omitempty"`
	LLMContext *LLMContext  `json:"llm_context,omitempty"`
}

// PromptSpec is a top-level prompt declared in next.prompts
type PromptSpec struct {
	ID       string  `json:"id,omitempty"`
	Template string  `json:"template"`
	Inputs   []Input `json:"inputs,omitempty"`
}

// LLMContext carries contextual variables that override input defaults
type LLMContext struct {
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Action is a card-level action; only kind=run_tool produces jobs
type Action struct {
	Kind    string                 `json:"kind"`
	ID      string                 `json:"id"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ActionRunTool marks an action dispatched to the tool registry
const ActionRunTool = "run_tool"

// ParseScreen decodes a screen document from JSON. A document without a
// nodes list is still valid (a leaf screen that expands to nothing).
func ParseScreen(data []byte) (*Screen, error) {
	var s Screen
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("malformed screen document: %w", err)
	}
	return &s, nil
}

// Stringify renders a context or option value for template substitution.
// Objects and arrays serialize to their JSON form; scalars render without
// quoting.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		// JSON numbers decode as float64; render integers without a decimal
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
