package expand

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xcervi19/orakulum/internal/logging"
)

// Source identifies which family of the document a job came from
type Source string

const (
	SourceSection Source = "section"
	SourcePrompt  Source = "prompt"
	SourceTool    Source = "tool"
)

// Job is one unit of generation work derived from a screen document. Jobs
// exist only within one traversal step.
type Job struct {
	Label   string
	Source  Source
	Prompt  string                 // Rendered prompt (section and prompt jobs)
	Payload map[string]interface{} // Untouched payload (tool jobs)
	Inputs  map[string]string
	Options []string
	Hash    string // Content hash of the rendered prompt, empty for tools
}

// Expander turns a screen document into the ordered job list for one
// expansion step. The dedup set spans the whole run, not a single call: the
// remote generator re-proposes structurally identical expansions at
// different tree depths, which would otherwise loop generation forever.
type Expander struct {
	fanout int
	seen   map[string]struct{}
	log    *logging.Logger
}

// NewExpander creates an expander with the given fan-out cap and a fresh
// dedup set
func NewExpander(fanout int) *Expander {
	return &Expander{
		fanout: fanout,
		seen:   make(map[string]struct{}),
		log:    logging.NewLogger("expander"),
	}
}

// Expand produces the ordered jobs for one document: section jobs, then
// top-level prompt jobs, then tool jobs, truncated to the fan-out cap after
// concatenation. Non-tool jobs whose rendered prompt was already emitted in
// this run are silently dropped.
func (e *Expander) Expand(doc *Screen) []Job {
	if doc == nil {
		return nil
	}

	var candidates []Job
	candidates = append(candidates, e.sectionJobs(doc)...)
	candidates = append(candidates, e.promptJobs(doc)...)
	candidates = append(candidates, e.toolJobs(doc)...)

	jobs := make([]Job, 0, len(candidates))
	for _, job := range candidates {
		if job.Source != SourceTool {
			if _, dup := e.seen[job.Hash]; dup {
				e.log.Debugf("dropping duplicate job %s", job.Label)
				continue
			}
			e.seen[job.Hash] = struct{}{}
		}
		jobs = append(jobs, job)
		if len(jobs) >= e.fanout {
			break
		}
	}
	return jobs
}

// SeenCount returns the size of the run's dedup set
func (e *Expander) SeenCount() int {
	return len(e.seen)
}

func (e *Expander) sectionJobs(doc *Screen) []Job {
	var jobs []Job
	for _, node := range doc.Nodes {
		if node.Type != NodeSection || node.Expand == nil {
			continue
		}
		id := node.ID
		if id == "" {
			id = NodeSection
		}
		jobs = append(jobs, expandSpec(
			SourceSection, id,
			node.Expand.PromptTemplate, node.Expand.Inputs,
			contextVariables(doc),
		)...)
	}
	return jobs
}

func (e *Expander) promptJobs(doc *Screen) []Job {
	if doc.Next == nil {
		return nil
	}
	var jobs []Job
	for _, spec := range doc.Next.Prompts {
		id := spec.ID
		if id == "" {
			id = string(SourcePrompt)
		}
		jobs = append(jobs, expandSpec(
			SourcePrompt, id,
			spec.Template, spec.Inputs,
			contextVariables(doc),
		)...)
	}
	return jobs
}

func (e *Expander) toolJobs(doc *Screen) []Job {
	var jobs []Job
	for _, node := range doc.Nodes {
		if node.Type != NodeCard {
			continue
		}
		for _, action := range node.Actions {
			if action.Kind != ActionRunTool {
				continue
			}
			jobs = append(jobs, Job{
				Label:   "tool:" + action.ID,
				Source:  SourceTool,
				Payload: action.Payload,
			})
		}
	}
	return jobs
}

// expandSpec materializes one templated spec into concrete jobs: the
// Cartesian product of every enumerable input's options, with non-enumerable
// inputs resolved to typed defaults and overridden by contextual variables.
func expandSpec(source Source, id, template string, inputs []Input, variables map[string]interface{}) []Job {
	var enums []Input
	base := make(map[string]string)
	for _, in := range inputs {
		if in.Enumerable() {
			enums = append(enums, in)
			continue
		}
		base[in.Name] = Stringify(defaultValue(in))
	}
	for name, v := range variables {
		if _, declared := base[name]; declared {
			base[name] = Stringify(v)
		}
	}

	prefix := string(source) + ":" + id

	if len(enums) == 0 {
		prompt := FillTemplate(template, base)
		return []Job{{
			Label:   prefix,
			Source:  source,
			Prompt:  prompt,
			Inputs:  base,
			Options: []string{},
			Hash:    HashPrompt(prompt),
		}}
	}

	var jobs []Job
	for _, combo := range cartesian(enums) {
		resolved := make(map[string]string, len(base)+len(combo))
		for k, v := range base {
			resolved[k] = v
		}
		options := make([]string, len(combo))
		for i, v := range combo {
			resolved[enums[i].Name] = Stringify(v)
			options[i] = Stringify(v)
		}

		prompt := FillTemplate(template, resolved)
		jobs = append(jobs, Job{
			Label:   prefix + ":" + strings.Join(options, ":"),
			Source:  source,
			Prompt:  prompt,
			Inputs:  resolved,
			Options: options,
			Hash:    HashPrompt(prompt),
		})
	}
	return jobs
}

// cartesian enumerates the full product of the enum inputs' option sets, in
// declaration order with the rightmost input varying fastest
func cartesian(enums []Input) [][]interface{} {
	combos := [][]interface{}{{}}
	for _, in := range enums {
		var next [][]interface{}
		for _, combo := range combos {
			for _, opt := range in.Options {
				extended := make([]interface{}, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, opt))
			}
		}
		combos = next
	}
	return combos
}

// defaultValue resolves a non-enumerable input to its deterministic default
func defaultValue(in Input) interface{} {
	switch in.Type {
	case InputNumber:
		return 30
	case InputString:
		return "default"
	case InputBoolean:
		return true
	default:
		return nil
	}
}

func contextVariables(doc *Screen) map[string]interface{} {
	if doc.Next == nil || doc.Next.LLMContext == nil {
		return nil
	}
	return doc.Next.LLMContext.Variables
}

// HashPrompt produces the stable content hash used for run-wide
// deduplication of rendered prompts
func HashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
