package naming

import "strconv"

// Registry hands out names that are unique within one scope. A generator
// keeps one registry per scope: per entity for columns and properties, per
// project for constraint, index and model names.
type Registry struct {
	sep  string
	used map[string]struct{}
}

// NewRegistry returns an empty registry whose suffixes match the casing:
// name_2 for Snake and Key, Name2 for Pascal and Camel.
func NewRegistry(c Casing) *Registry {
	sep := "_"
	if c == Pascal || c == Camel {
		sep = ""
	}
	return &Registry{sep: sep, used: make(map[string]struct{})}
}

// Unique returns base if it is free, otherwise base with the first free
// numeric suffix starting at 2. The returned name is recorded as used.
func (r *Registry) Unique(base string) string {
	if _, taken := r.used[base]; !taken {
		r.used[base] = struct{}{}
		return base
	}
	for n := 2; ; n++ {
		candidate := base + r.sep + strconv.Itoa(n)
		if _, taken := r.used[candidate]; !taken {
			r.used[candidate] = struct{}{}
			return candidate
		}
	}
}

// Reserve marks names as used without renaming them
func (r *Registry) Reserve(names ...string) {
	for _, n := range names {
		r.used[n] = struct{}{}
	}
}

// Has reports whether name has been handed out or reserved
func (r *Registry) Has(name string) bool {
	_, ok := r.used[name]
	return ok
}
