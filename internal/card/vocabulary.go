package card

import "strings"

// Vocabulary is the ordered, closed set of injury-mechanism tags.
type Vocabulary []string

// DefaultVocabulary returns the canonical mechanism checklist.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"Artillery",
		"Blunt",
		"Burn",
		"Fall",
		"Grenade",
		"GSW",
		"IED",
		"Landmine",
		"MVC",
		"RPG",
		"Other",
	}
}

// Match returns every tag whose lowercase text occurs in entry's lowercase
// text, in vocabulary order.
func (v Vocabulary) Match(entry string) []string {
	lowered := strings.ToLower(entry)
	if strings.TrimSpace(lowered) == "" {
		return nil
	}

	var matched []string
	for _, tag := range v {
		if tag == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(tag)) {
			matched = append(matched, tag)
		}
	}
	return matched
}

// Canonical returns the vocabulary spelling of tag, matched case-insensitively.
func (v Vocabulary) Canonical(tag string) (string, bool) {
	tag = strings.TrimSpace(tag)
	for _, known := range v {
		if strings.EqualFold(known, tag) {
			return known, true
		}
	}
	return "", false
}

// Normalize filters tags down to canonical vocabulary members, deduplicated
// and in vocabulary order.
func (v Vocabulary) Normalize(tags []string) []string {
	present := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if canonical, ok := v.Canonical(tag); ok {
			present[canonical] = struct{}{}
		}
	}

	out := make([]string, 0, len(present))
	for _, known := range v {
		if _, ok := present[known]; ok {
			out = append(out, known)
			delete(present, known)
		}
	}
	return out
}

// Unknown returns the non-empty entries of tags that match no vocabulary tag,
// deduplicated case-insensitively and in their original order.
func (v Vocabulary) Unknown(tags []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := v.Canonical(tag); ok {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Retain is Normalize that keeps entries outside the vocabulary, after the
// canonical tags. Card data written under another vocabulary survives.
func (v Vocabulary) Retain(tags []string) []string {
	return append(v.Normalize(tags), v.Unknown(tags)...)
}
