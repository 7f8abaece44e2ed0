package card

import "strings"

// MergeReport describes what a merge changed.
type MergeReport struct {
	// Changed lists card fields whose value differs after the merge.
	Changed []string
	// Discarded lists injury entries that matched no vocabulary tag.
	Discarded []string
}

// Merger applies PartialRecords to cards.
type Merger struct {
	fields     FieldMap
	vocabulary Vocabulary
}

// NewMerger builds a Merger. Nil arguments select the defaults.
func NewMerger(fields FieldMap, vocabulary Vocabulary) Merger {
	if fields == nil {
		fields = DefaultFieldMap()
	}
	if vocabulary == nil {
		vocabulary = DefaultVocabulary()
	}
	return Merger{fields: fields, vocabulary: vocabulary}
}

// Vocabulary returns the mechanism vocabulary used by the merger.
func (m Merger) Vocabulary() Vocabulary {
	if m.vocabulary == nil {
		return DefaultVocabulary()
	}
	return m.vocabulary
}

// Merge returns current updated with incoming. current is not modified.
func (m Merger) Merge(current Card, incoming PartialRecord) (Card, MergeReport) {
	fields := m.fields
	if fields == nil {
		fields = DefaultFieldMap()
	}

	next := current.Clone()
	var report MergeReport

	for _, key := range RecognizedKeys {
		target, ok := fields[key]
		if !ok {
			continue
		}
		value, present := incoming.Get(key)
		if !present || strings.TrimSpace(value) == "" {
			continue
		}
		ref := next.fieldRef(target)
		if ref == nil {
			continue
		}
		if *ref != value {
			*ref = value
			report.Changed = appendUnique(report.Changed, target)
		}
	}

	vocabulary := m.Vocabulary()
	var matched []string
	for _, entry := range incoming.Injury {
		tags := vocabulary.Match(entry)
		if len(tags) == 0 {
			report.Discarded = append(report.Discarded, entry)
			continue
		}
		matched = append(matched, tags...)
	}
	if len(matched) > 0 {
		union := vocabulary.Retain(append(append([]string(nil), current.MechanismOfInjury...), matched...))
		if !sameTags(union, current.MechanismOfInjury) {
			next.MechanismOfInjury = union
			report.Changed = append(report.Changed, FieldMechanismOfInjury)
		}
	}

	return next, report
}

// Merge applies incoming to current with the default field map and
// vocabulary.
func Merge(current Card, incoming PartialRecord) Card {
	next, _ := NewMerger(nil, nil).Merge(current, incoming)
	return next
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, tag := range a {
		seen[tag]++
	}
	for _, tag := range b {
		if seen[tag] == 0 {
			return false
		}
		seen[tag]--
	}
	return true
}
