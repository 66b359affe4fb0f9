package convert

// pool is an append-only list that keeps each value once, in first-insertion
// order.
type pool struct {
	seen   map[string]struct{}
	values []string
}

func newPool() *pool {
	return &pool{seen: make(map[string]struct{})}
}

func (p *pool) push(v string) {
	if _, ok := p.seen[v]; ok {
		return
	}
	p.seen[v] = struct{}{}
	p.values = append(p.values, v)
}

func (p *pool) first(n int) []string {
	if len(p.values) < n {
		n = len(p.values)
	}
	out := make([]string, n)
	copy(out, p.values)
	return out
}
