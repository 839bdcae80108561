package expand

import "sync"

// Tool is an external capability a tool job dispatches to. The returned
// context is handed to the generator alongside the job metadata.
type Tool interface {
	Invoke(payload map[string]interface{}) (map[string]interface{}, error)
}

// ToolFunc adapts a plain function to the Tool interface
type ToolFunc func(payload map[string]interface{}) (map[string]interface{}, error)

// Invoke calls the wrapped function
func (f ToolFunc) Invoke(payload map[string]interface{}) (map[string]interface{}, error) {
	return f(payload)
}

// ToolRegistry is a name-keyed lookup table of tools
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates an empty registry
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool under the given name
func (r *ToolRegistry) Register(name string, tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool
}

// Get retrieves a tool by name
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}
