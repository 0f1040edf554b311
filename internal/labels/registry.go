// Package labels maintains the set of known annotation labels and the label
// applied to newly drawn boxes.
package labels

import (
	"sort"
)

// Registry holds the ordered set of known labels and the current label.
type Registry struct {
	known   []string
	current string

	onChanged        []func()
	onCurrentChanged []func(label string)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnChanged registers a callback invoked when the known-label set changes.
func (r *Registry) OnChanged(fn func()) {
	r.onChanged = append(r.onChanged, fn)
}

// OnCurrentChanged registers a callback invoked when the current label
// changes.
func (r *Registry) OnCurrentChanged(fn func(label string)) {
	r.onCurrentChanged = append(r.onCurrentChanged, fn)
}

func (r *Registry) notifyChanged() {
	for _, fn := range r.onChanged {
		fn()
	}
}

// Current returns the label applied to newly drawn boxes, empty if unset.
func (r *Registry) Current() string { return r.current }

// SetCurrent sets the current label, registering it if unknown.
func (r *Registry) SetCurrent(label string) {
	if label != "" {
		r.Add(label)
	}
	if label == r.current {
		return
	}
	r.current = label
	for _, fn := range r.onCurrentChanged {
		fn(label)
	}
}

// Known returns the sorted known labels.
func (r *Registry) Known() []string {
	out := make([]string, len(r.known))
	copy(out, r.known)
	return out
}

// Has reports whether label is known.
func (r *Registry) Has(label string) bool {
	i := sort.SearchStrings(r.known, label)
	return i < len(r.known) && r.known[i] == label
}

// Add registers a label. Empty and duplicate labels are ignored.
func (r *Registry) Add(label string) {
	if label == "" || r.Has(label) {
		return
	}
	i := sort.SearchStrings(r.known, label)
	r.known = append(r.known, "")
	copy(r.known[i+1:], r.known[i:])
	r.known[i] = label
	r.notifyChanged()
}

// Remove unregisters a label. Clears the current label if it matches.
func (r *Registry) Remove(label string) {
	i := sort.SearchStrings(r.known, label)
	if i >= len(r.known) || r.known[i] != label {
		return
	}
	r.known = append(r.known[:i], r.known[i+1:]...)
	if r.current == label {
		r.SetCurrent("")
	}
	r.notifyChanged()
}

// AddAll registers every label in the list, e.g. from a freshly loaded
// annotation set.
func (r *Registry) AddAll(list []string) {
	for _, label := range list {
		r.Add(label)
	}
}
