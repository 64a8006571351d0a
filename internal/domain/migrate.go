package domain

// RenameDomains replaces every name in from with to in the student's domain
// list, treating the list as a set. The first position at which any of the
// renamed names (or to itself) appeared is kept, and duplicates are dropped.
// It reports whether the list changed.
func RenameDomains(s Student, from []string, to string) (Student, bool) {
	retired := make(map[string]struct{}, len(from))
	for _, f := range from {
		retired[f] = struct{}{}
	}

	changed := false
	seen := make(map[string]struct{}, len(s.Domains))
	out := make([]string, 0, len(s.Domains))
	for _, name := range s.Domains {
		if _, ok := retired[name]; ok {
			name = to
			changed = true
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	if !changed {
		return s, false
	}
	s.Domains = out
	return s, true
}
