// Package templates manages the reference images that identify UI
// affordances on the remote chat interface (text input, send button, busy
// spinner, scroll control, copy button). References are declared in a YAML
// manifest and loaded once at process start; a missing required asset is a
// fatal configuration error.
package templates

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xcervi19/orakulum/internal/cv"
)

// Well-known reference names used by the automation
const (
	RefTextarea = "textarea"
	RefSend     = "send"
	RefCopy     = "copy"
	RefScroll   = "scroll"
	RefBusy     = "busy"
	RefNewChat  = "new-chat"
)

// Required lists the references the automation cannot run without
var Required = []string{RefTextarea, RefSend, RefCopy, RefBusy}

// Reference describes one named reference image
type Reference struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold,omitempty"`
}

// manifest is the structure of the references YAML file
type manifest struct {
	References []Reference `yaml:"references"`
}

// Registry holds the reference set with pre-decoded grayscale images
type Registry struct {
	mu       sync.RWMutex
	refs     map[string]Reference
	images   map[string]*image.Gray
	basePath string
}

// NewRegistry creates a registry rooted at basePath. Reference paths in the
// manifest are resolved relative to it.
func NewRegistry(basePath string) *Registry {
	return &Registry{
		refs:     make(map[string]Reference),
		images:   make(map[string]*image.Gray),
		basePath: basePath,
	}
}

// LoadManifest reads a YAML manifest and registers its references
func (r *Registry) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read reference manifest %s: %w", path, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to unmarshal reference manifest: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, ref := range m.References {
		if ref.Name == "" {
			return fmt.Errorf("reference %d: name cannot be empty", i+1)
		}
		if ref.Path == "" {
			return fmt.Errorf("reference %d (%s): path cannot be empty", i+1, ref.Name)
		}
		if ref.Threshold == 0 {
			ref.Threshold = 0.7
		}
		ref.Path = filepath.Join(r.basePath, ref.Path)
		r.refs[ref.Name] = ref
	}

	return nil
}

// Register adds a reference programmatically with an already-decoded image.
// Used by tests and by callers that build references from memory.
func (r *Registry) Register(ref Reference, img image.Image) error {
	if ref.Name == "" {
		return fmt.Errorf("reference name cannot be empty")
	}
	if ref.Threshold == 0 {
		ref.Threshold = 0.7
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[ref.Name] = ref
	if img != nil {
		r.images[ref.Name] = cv.ToGray(img)
	}
	return nil
}

// Preload decodes every registered reference image from disk. Any failure is
// a configuration error; the automation cannot degrade around a reference it
// cannot see.
func (r *Registry) Preload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, ref := range r.refs {
		if _, ok := r.images[name]; ok {
			continue
		}
		img, err := loadPNG(ref.Path)
		if err != nil {
			return fmt.Errorf("reference %s: %w", name, err)
		}
		r.images[name] = cv.ToGray(img)
	}
	return nil
}

// Require verifies that each named reference is registered and loaded
func (r *Registry) Require(names ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if _, ok := r.refs[name]; !ok {
			return fmt.Errorf("required reference %q not registered", name)
		}
		if _, ok := r.images[name]; !ok {
			return fmt.Errorf("required reference %q has no loaded image", name)
		}
	}
	return nil
}

// Get retrieves a reference by name
func (r *Registry) Get(name string) (Reference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[name]
	return ref, ok
}

// Image returns the decoded grayscale image for a reference
func (r *Registry) Image(name string) (*image.Gray, Reference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.refs[name]
	if !ok {
		return nil, Reference{}, fmt.Errorf("reference %q not registered", name)
	}
	img, ok := r.images[name]
	if !ok {
		return nil, Reference{}, fmt.Errorf("reference %q not loaded", name)
	}
	return img, ref, nil
}

// Has checks whether a reference is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.refs[name]
	return ok
}

// List returns all registered reference names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.refs))
	for name := range r.refs {
		names = append(names, name)
	}
	return names
}

func loadPNG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
