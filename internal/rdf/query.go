package rdf

// Node is a pattern position: either a bound term or a variable name.
type Node struct {
	Term Term
	Var  string
}

// V returns a variable node.
func V(name string) Node { return Node{Var: name} }

// N returns a bound node.
func N(t Term) Node { return Node{Term: t} }

// Pattern is a triple pattern matched in any graph.
type Pattern struct {
	S, P, O Node
}

// P is shorthand for building a Pattern.
func P(s, p, o Node) Pattern { return Pattern{S: s, P: p, O: o} }

// Binding maps variable names to terms.
type Binding map[string]Term

// Query is a SELECT-shaped basic graph pattern with OPTIONAL groups.
// Optional groups are left-joined in order; Filter runs after them.
// Limit <= 0 means unbounded.
type Query struct {
	Where    []Pattern
	Optional [][]Pattern
	Filter   func(Binding) bool
	Limit    int
}

// Select evaluates q against src.
func Select(src Source, q Query) []Binding {
	rows := []Binding{{}}
	for _, p := range q.Where {
		rows = join(src, rows, p)
		if len(rows) == 0 {
			return nil
		}
	}

	for _, group := range q.Optional {
		var next []Binding
		for _, row := range rows {
			ext := []Binding{row}
			for _, p := range group {
				ext = join(src, ext, p)
				if len(ext) == 0 {
					break
				}
			}
			if len(ext) == 0 {
				next = append(next, row)
				continue
			}
			next = append(next, ext...)
		}
		rows = next
	}

	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		if q.Filter != nil && !q.Filter(row) {
			continue
		}
		out = append(out, row)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

func join(src Source, rows []Binding, p Pattern) []Binding {
	var out []Binding
	for _, row := range rows {
		s, p2, o := bindNode(p.S, row), bindNode(p.P, row), bindNode(p.O, row)
		for q := range src.Match(s, p2, o, Term{}) {
			ext, ok := extend(row, p, q)
			if ok {
				out = append(out, ext)
			}
		}
	}
	return out
}

func bindNode(n Node, row Binding) Term {
	if n.Var == "" {
		return n.Term
	}
	return row[n.Var]
}

// extend binds p's variables from q. A variable repeated within p must
// bind to the same term in every position.
func extend(row Binding, p Pattern, q Quad) (Binding, bool) {
	ext := make(Binding, len(row)+3)
	for k, v := range row {
		ext[k] = v
	}
	for _, pair := range [...]struct {
		n Node
		t Term
	}{{p.S, q.S}, {p.P, q.P}, {p.O, q.O}} {
		if pair.n.Var == "" {
			continue
		}
		if cur, ok := ext[pair.n.Var]; ok && cur != pair.t {
			return nil, false
		}
		ext[pair.n.Var] = pair.t
	}
	return ext, true
}

// Values collects the distinct terms bound to name, in first-seen order.
func Values(rows []Binding, name string) []Term {
	var out []Term
	seen := make(map[Term]struct{})
	for _, row := range rows {
		t, ok := row[name]
		if !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Objects returns the distinct objects of (s, p, *).
func Objects(src Source, s, p Term) []Term {
	var out []Term
	seen := make(map[Term]struct{})
	for q := range src.Match(s, p, Term{}, Term{}) {
		if _, dup := seen[q.O]; dup {
			continue
		}
		seen[q.O] = struct{}{}
		out = append(out, q.O)
	}
	return out
}
