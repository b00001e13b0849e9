// Package registry holds the static table of tracked game companies.
// The table is read-only configuration: it is constructed once at startup and
// injected into the components that need code/name resolution, so tests can
// substitute a smaller registry.
package registry

import "strings"

// Company is one tracked entity: a stock code, a display name and a country tag.
type Company struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Registry is an immutable code -> company lookup table.
type Registry struct {
	byCode  map[string]Company
	ordered []Company
}

// New builds a registry from a company list. Input order is preserved for
// iteration so batch runs process companies deterministically.
func New(companies []Company) *Registry {
	byCode := make(map[string]Company, len(companies))
	ordered := make([]Company, 0, len(companies))
	for _, c := range companies {
		if _, exists := byCode[c.Code]; exists {
			continue
		}
		byCode[c.Code] = c
		ordered = append(ordered, c)
	}
	return &Registry{byCode: byCode, ordered: ordered}
}

// Resolve maps an identifier to a company. Stock codes match exactly; otherwise
// the identifier is matched against display names, including partial matches in
// either direction ("카카오게임즈" finds "카카오게임즈", "Nintendo" finds "7974").
func (r *Registry) Resolve(identifier string) (Company, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Company{}, false
	}

	if c, ok := r.byCode[identifier]; ok {
		return c, true
	}

	// Exact name match first so a full name never resolves to a different
	// company that happens to share a prefix.
	for _, c := range r.ordered {
		if c.Name == identifier {
			return c, true
		}
	}
	for _, c := range r.ordered {
		if strings.Contains(c.Name, identifier) || strings.Contains(identifier, c.Name) {
			return c, true
		}
	}

	return Company{}, false
}

// Get returns the company for an exact stock code.
func (r *Registry) Get(code string) (Company, bool) {
	c, ok := r.byCode[code]
	return c, ok
}

// Companies returns the registry contents in registration order.
// The returned slice is a copy; callers cannot mutate the registry.
func (r *Registry) Companies() []Company {
	out := make([]Company, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of registered companies.
func (r *Registry) Len() int {
	return len(r.ordered)
}
