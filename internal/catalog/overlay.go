package catalog

// Overlay is a provisional view over a Catalog. Writes stay in the overlay, so the
// base only changes when a rewrite actually commits an entry.
type Overlay struct {
	base    *Catalog
	pending map[string]string
	byValue map[string]string
}

// Overlay opens a provisional view over c.
func (c *Catalog) Overlay() *Overlay {
	return &Overlay{
		base:    c,
		pending: make(map[string]string),
		byValue: make(map[string]string),
	}
}

// Base returns the underlying catalog.
func (o *Overlay) Base() *Catalog { return o.base }

// LookupValueByKey checks pending entries first, then the base.
func (o *Overlay) LookupValueByKey(key string) (string, bool) {
	if v, ok := o.pending[key]; ok {
		return v, true
	}
	return o.base.LookupValueByKey(key)
}

// LookupKeyByValue checks the base first, then pending entries.
func (o *Overlay) LookupKeyByValue(text string) (string, bool) {
	if k, ok := o.base.LookupKeyByValue(text); ok {
		return k, true
	}
	k, ok := o.byValue[text]
	return k, ok
}

// Set records a provisional entry.
func (o *Overlay) Set(key, text string) {
	o.pending[key] = text
	if _, ok := o.byValue[text]; !ok {
		o.byValue[text] = key
	}
}

// Pending returns the number of provisional entries.
func (o *Overlay) Pending() int { return len(o.pending) }

// Children merges child segments of namespace from base and pending entries.
func (o *Overlay) Children(namespace string) []string {
	base := o.base.Children(namespace)
	extra := children(o.pending, namespace)
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		if _, ok := seen[s]; !ok {
			base = append(base, s)
		}
	}
	return base
}

// Conflicts reports structural conflicts against base and pending entries.
func (o *Overlay) Conflicts(key string) bool {
	return o.base.Conflicts(key) || conflicts(o.pending, key)
}
