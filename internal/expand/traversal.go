package expand

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xcervi19/orakulum/internal/logging"
)

// Runner submits one rendered prompt through the generation channel and
// returns the raw extracted content. The screen-automation session satisfies
// this; tests substitute fakes.
type Runner interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder persists the traversal transcript incrementally, so a crash
// mid-run loses at most the in-flight job
type Recorder interface {
	RecordRoot(doc *Screen) (int64, error)
	RecordResult(parentID int64, res *Result, ord int) (int64, error)
}

// Result is one processed job with its outcome. Results are produced in the
// exact order jobs were dequeued, which is also depth order.
type Result struct {
	Depth       int
	Label       string
	Job         Job
	Prompt      string                 // What was actually submitted
	ToolContext map[string]interface{} // Tool jobs only
	Content     string                 // Raw extracted content, empty when pruned
	Document    *Screen                // Parsed child document, nil when pruned
	Pruned      bool
}

// Traversal drives breadth-first expansion of the job tree to a bounded
// depth. A FIFO frontier guarantees all depth-d jobs are processed before
// any depth-d+1 job is dequeued. The depth ceiling is the sole termination
// guarantee; the dedup set alone cannot terminate a generator that never
// repeats itself.
type Traversal struct {
	expander *Expander
	runner   Runner
	tools    *ToolRegistry
	recorder Recorder
	maxDepth int
	log      *logging.Logger

	initial  *Screen
	started  bool
	frontier []frontierEntry
	current  *entryJobs
}

type frontierEntry struct {
	depth    int
	label    string
	parentID int64
	doc      *Screen
}

type entryJobs struct {
	entry frontierEntry
	jobs  []Job
	next  int
	ord   int
}

// NewTraversal creates a traversal over the initial document
func NewTraversal(initial *Screen, expander *Expander, runner Runner, maxDepth int) *Traversal {
	return &Traversal{
		expander: expander,
		runner:   runner,
		maxDepth: maxDepth,
		initial:  initial,
		log:      logging.NewLogger("traversal"),
	}
}

// WithTools attaches a tool registry for run_tool jobs
func (t *Traversal) WithTools(tools *ToolRegistry) *Traversal {
	t.tools = tools
	return t
}

// WithRecorder attaches incremental transcript persistence
func (t *Traversal) WithRecorder(recorder Recorder) *Traversal {
	t.recorder = recorder
	return t
}

// Next processes and returns the next job in FIFO order. It returns
// (nil, nil) when the traversal is exhausted. Cancellation is checked at
// each frontier pop and before each job, so long batch runs can be stopped
// between jobs without corrupting in-flight state.
func (t *Traversal) Next(ctx context.Context) (*Result, error) {
	if !t.started {
		if err := t.start(); err != nil {
			return nil, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if t.current != nil && t.current.next < len(t.current.jobs) {
			job := t.current.jobs[t.current.next]
			t.current.next++
			return t.processJob(ctx, job)
		}
		t.current = nil

		if len(t.frontier) == 0 {
			return nil, nil
		}

		entry := t.frontier[0]
		t.frontier = t.frontier[1:]

		if entry.depth >= t.maxDepth {
			t.log.Debugf("dropping %s at depth %d (ceiling %d)", entry.label, entry.depth, t.maxDepth)
			continue
		}

		jobs := t.expander.Expand(entry.doc)
		t.log.Debugf("expanded %s into %d job(s) at depth %d", entry.label, len(jobs), entry.depth)
		t.current = &entryJobs{entry: entry, jobs: jobs}
	}
}

// Run drains the traversal and returns every result in order
func (t *Traversal) Run(ctx context.Context) ([]*Result, error) {
	var results []*Result
	for {
		res, err := t.Next(ctx)
		if err != nil {
			return results, err
		}
		if res == nil {
			return results, nil
		}
		results = append(results, res)
	}
}

func (t *Traversal) start() error {
	var rootID int64 = 1
	if t.recorder != nil {
		id, err := t.recorder.RecordRoot(t.initial)
		if err != nil {
			return fmt.Errorf("failed to record root document: %w", err)
		}
		rootID = id
	}
	t.frontier = []frontierEntry{{depth: 0, label: "root", parentID: rootID, doc: t.initial}}
	t.started = true
	return nil
}

// processJob runs one job through the generation channel. A per-job failure
// prunes that branch (no children are enqueued) and the traversal continues
// with the remaining jobs.
func (t *Traversal) processJob(ctx context.Context, job Job) (*Result, error) {
	entry := t.current.entry
	res := &Result{
		Depth: entry.depth,
		Label: job.Label,
		Job:   job,
	}

	prompt := job.Prompt
	if job.Source == SourceTool {
		res.ToolContext = t.invokeTool(job)
		serialized, err := json.Marshal(map[string]interface{}{
			"tool_context": res.ToolContext,
			"meta":         map[string]interface{}{"source": string(job.Source), "label": job.Label},
		})
		if err != nil {
			t.log.Error(fmt.Sprintf("job %s: tool context serialization failed, pruning", job.Label), err)
			res.Pruned = true
			t.record(res)
			return res, nil
		}
		prompt = string(serialized)
	}
	res.Prompt = prompt

	content, err := t.runner.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.log.Error(fmt.Sprintf("job %s failed, pruning branch", job.Label), err)
		res.Pruned = true
		t.record(res)
		return res, nil
	}
	res.Content = content

	child, err := ParseScreen([]byte(content))
	if err != nil {
		t.log.Error(fmt.Sprintf("job %s produced unparseable content, pruning branch", job.Label), err)
		res.Pruned = true
		t.record(res)
		return res, nil
	}
	res.Document = child

	childID := t.record(res)
	t.frontier = append(t.frontier, frontierEntry{
		depth:    entry.depth + 1,
		label:    job.Label,
		parentID: childID,
		doc:      child,
	})

	t.log.Infof("job %s completed at depth %d (%d chars)", job.Label, entry.depth, len(content))
	return res, nil
}

// invokeTool dispatches a tool job's payload to the registry. A missing or
// failing tool yields an empty context, mirroring the prompt path's
// best-effort bias.
func (t *Traversal) invokeTool(job Job) map[string]interface{} {
	name, _ := job.Payload["tool"].(string)
	if t.tools == nil || name == "" {
		return map[string]interface{}{}
	}
	tool, ok := t.tools.Get(name)
	if !ok {
		t.log.Warnf("job %s references unregistered tool %q", job.Label, name)
		return map[string]interface{}{}
	}
	toolCtx, err := tool.Invoke(job.Payload)
	if err != nil {
		t.log.Error(fmt.Sprintf("tool %q failed for job %s", name, job.Label), err)
		return map[string]interface{}{}
	}
	if toolCtx == nil {
		toolCtx = map[string]interface{}{}
	}
	return toolCtx
}

func (t *Traversal) record(res *Result) int64 {
	entry := t.current.entry
	id := entry.parentID
	if t.recorder != nil {
		recorded, err := t.recorder.RecordResult(entry.parentID, res, t.current.ord)
		if err != nil {
			t.log.Error(fmt.Sprintf("failed to persist result for %s", res.Label), err)
		} else {
			id = recorded
		}
	}
	t.current.ord++
	return id
}
