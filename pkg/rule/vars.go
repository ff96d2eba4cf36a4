package rule

// VarRef describes one distinct variable referenced by a rule.
type VarRef struct {
	// Path is the dotted reference path. Empty for the bare current-item
	// reference inside iterations.
	Path string `json:"path"`
	// Default is the fallback operand of the first sighting, nil if none.
	Default *Rule `json:"default,omitempty"`
	// Sites counts how many places reference this path.
	Sites int `json:"sites"`
}

// Segments returns the dotted path split into its parts.
func (v VarRef) Segments() []string { return splitPath(v.Path) }

// Root returns the first path segment, or "" for the current-item
// reference.
func (v VarRef) Root() string {
	segs := v.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// Vars collects every variable referenced anywhere in the rule,
// deduplicated by path, in first-seen depth-first order. Deterministic
// for a given rule, which keeps generated test data and evaluation
// environments stable.
func Vars(r *Rule) []VarRef {
	var refs []VarRef
	index := map[string]int{}
	Walk(r, func(n *Rule) bool {
		if !n.IsVar() {
			return true
		}
		path, _ := n.VarPath()
		if i, ok := index[path]; ok {
			refs[i].Sites++
		} else {
			index[path] = len(refs)
			refs = append(refs, VarRef{Path: path, Default: n.VarDefaultRule(), Sites: 1})
		}
		// Still walk the default operand: it may reference other vars.
		return true
	})
	return refs
}

// VarRoots returns the distinct first segments of every non-empty variable
// path, in first-seen order. Evaluation backends declare these as the
// identifiers of the data record.
func VarRoots(r *Rule) []string {
	var roots []string
	seen := map[string]bool{}
	for _, ref := range Vars(r) {
		root := ref.Root()
		if root == "" || seen[root] {
			continue
		}
		seen[root] = true
		roots = append(roots, root)
	}
	return roots
}
