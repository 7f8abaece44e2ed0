package card

import "sync"

// Form is the card shared between dictation merges and manual edits.
// All writers go through the mutex so a merge replaces the card atomically.
type Form struct {
	mu     sync.Mutex
	card   Card
	merger Merger
}

// NewForm seeds a form with initial. Known mechanism tags are canonicalized;
// tags outside the merger's vocabulary are kept as stored.
func NewForm(initial Card, merger Merger) *Form {
	seeded := initial.Clone()
	if len(seeded.MechanismOfInjury) > 0 {
		seeded.MechanismOfInjury = merger.Vocabulary().Retain(seeded.MechanismOfInjury)
	}
	return &Form{card: seeded, merger: merger}
}

// Snapshot returns a copy of the current card.
func (f *Form) Snapshot() Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.card.Clone()
}

// Apply merges rec into the card and returns the merged copy.
func (f *Form) Apply(rec PartialRecord) (Card, MergeReport) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, report := f.merger.Merge(f.card, rec)
	f.card = next
	return next.Clone(), report
}

// Edit applies a manual change. Known mechanism tags are canonicalized
// afterwards.
func (f *Form) Edit(fn func(*Card)) Card {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.card.Clone()
	fn(&next)
	next.MechanismOfInjury = f.merger.Vocabulary().Retain(next.MechanismOfInjury)
	f.card = next
	return next.Clone()
}
