package engine

// MergeOptions controls duplicate handling during the provider merge.
type MergeOptions struct {
	// PreferLongerSnippet replaces the kept title/snippet with the duplicate's
	// when the duplicate carries a longer snippet. Default keeps the
	// earlier-seen provider's fields.
	PreferLongerSnippet bool
}

// DedupCandidates collapses duplicate URLs within one provider's output,
// preserving first occurrence and input order.
func DedupCandidates(in []Candidate) []Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		key := canonicalKey(c.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// MergeCandidates interleaves two provider result lists by rank: it walks both
// sequences in lock-step by index, emitting each next candidate unless its
// canonical URL was already emitted. When both providers return the same URL
// the record is marked SourceBoth and keeps the earlier-seen provider's rank
// hint. Output order is deterministic given the inputs; length ≤ |a| + |b|.
func MergeCandidates(a, b []Candidate, opts MergeOptions) []Candidate {
	emitted := make(map[string]int) // canonical URL → index in out
	out := make([]Candidate, 0, len(a)+len(b))

	add := func(c Candidate) {
		key := canonicalKey(c.URL)
		if key == "" {
			return
		}
		if idx, ok := emitted[key]; ok {
			prev := &out[idx]
			if prev.Source != c.Source {
				prev.Source = SourceBoth
			}
			if opts.PreferLongerSnippet && len(c.Snippet) > len(prev.Snippet) {
				prev.Title = c.Title
				prev.Snippet = c.Snippet
			}
			return
		}
		emitted[key] = len(out)
		out = append(out, c)
	}

	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			add(a[i])
		}
		if i < len(b) {
			add(b[i])
		}
	}
	return out
}
