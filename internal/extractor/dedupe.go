package extractor

// Dedupe keeps the first of every group of sections sharing a Key, in
// discovery order. Sections with the same title but different content are
// all kept.
func Dedupe(sections []Section) []Section {
	seen := make(map[string]struct{}, len(sections))
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		key := s.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
