package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleCard() Card {
	return Card{
		Name:               "Doe, John",
		BattleRosterNumber: "JD1234",
		Allergies:          "NKDA",
		MechanismOfInjury:  []string{"Blunt"},
		VitalSigns: VitalSigns{
			Pulse:         "110",
			BloodPressure: "120/80",
		},
		TreatmentsAdministered: "tourniquet",
		Notes:                  "manual note",
	}
}

func TestMergeAbsentFieldsUnchanged(t *testing.T) {
	current := sampleCard()
	next, report := NewMerger(nil, nil).Merge(current, PartialRecord{
		Scalars: map[string]string{KeyPulse: "88 bpm"},
	})

	want := sampleCard()
	want.VitalSigns.Pulse = "88 bpm"
	require.Equal(t, want, next)
	require.Equal(t, []string{FieldPulse}, report.Changed)
	require.Equal(t, "110", current.VitalSigns.Pulse)
}

func TestMergeEmptyValuesNeverClear(t *testing.T) {
	current := sampleCard()
	next, report := NewMerger(nil, nil).Merge(current, PartialRecord{
		Scalars: map[string]string{
			KeyPulse:         "",
			KeyBloodPressure: "   ",
			KeyTreatments:    "\n",
		},
		Injury: []string{},
	})
	require.Equal(t, current, next)
	require.Empty(t, report.Changed)
}

func TestMergeSetsExactValues(t *testing.T) {
	rec := PartialRecord{Scalars: map[string]string{
		KeyName:            "Smith, Jane",
		KeyRosterNumber:    "JS5678",
		KeyServiceBranch:   "USMC",
		KeyUnit:            "1/5",
		KeyGender:          "F",
		KeyDateTime:        "0930",
		KeyAllergies:       "penicillin",
		KeyInjuryLocations: " left arm ",
		KeyPulse:           "88 bpm",
		KeyBloodPressure:   "100/60",
		KeyRespiratoryRate: "18",
		KeyPulseOx:         "97%",
		KeyPainScale:       "6",
		KeyTreatments:      "pressure dressing",
	}}

	fields := DefaultFieldMap().With(IdentityFieldMap())
	next, _ := NewMerger(fields, nil).Merge(Card{}, rec)

	for key, value := range rec.Scalars {
		got, ok := next.Field(fields[key])
		require.True(t, ok, key)
		require.Equal(t, value, got, key)
	}
	require.Equal(t, "JS5678", next.BattleRosterNumber)
	require.Equal(t, "pressure dressing", next.TreatmentsAdministered)
}

func TestMergeKeepsIdentityByDefault(t *testing.T) {
	current := sampleCard()
	next, report := NewMerger(nil, nil).Merge(current, PartialRecord{Scalars: map[string]string{
		KeyName:         "Smith",
		KeyRosterNumber: "JS5678",
		KeyAllergies:    "penicillin",
		KeyPulse:        "88",
	}})

	require.Equal(t, "Doe, John", next.Name)
	require.Equal(t, "JD1234", next.BattleRosterNumber)
	require.Equal(t, "NKDA", next.Allergies)
	require.Equal(t, "88", next.VitalSigns.Pulse)
	require.Equal(t, []string{FieldPulse}, report.Changed)
	require.Equal(t, "Doe, John", Merge(current, PartialRecord{Scalars: map[string]string{KeyName: "Smith"}}).Name)
}

func TestMergeInjuryMatchesBySubstring(t *testing.T) {
	next, report := NewMerger(nil, nil).Merge(Card{}, PartialRecord{
		Injury: []string{"Shrapnel/IED fragment"},
	})
	require.Equal(t, []string{"IED"}, next.MechanismOfInjury)
	require.Empty(t, report.Discarded)
	require.Equal(t, []string{FieldMechanismOfInjury}, report.Changed)
}

func TestMergeInjuryDiscardsUnmatched(t *testing.T) {
	current := sampleCard()
	next, report := NewMerger(nil, nil).Merge(current, PartialRecord{
		Injury: []string{"stabbing", "gsw to chest", "fell from vehicle"},
	})
	require.Equal(t, []string{"Blunt", "GSW"}, next.MechanismOfInjury)
	require.Equal(t, []string{"stabbing", "fell from vehicle"}, report.Discarded)
}

func TestMergeInjuryPropertyAgainstVocabulary(t *testing.T) {
	vocabulary := DefaultVocabulary()
	entries := []string{
		"IED", "ied blast", "RPG round", "burns", "artillery shell", "shrapnel",
		"motor vehicle crash", "MVC rollover", "grenade", "other", "landmine", "knife",
	}

	for _, entry := range entries {
		next := Merge(Card{}, PartialRecord{Injury: []string{entry}})
		for _, tag := range vocabulary {
			want := strings.Contains(strings.ToLower(entry), strings.ToLower(tag))
			require.Equal(t, want, contains(next.MechanismOfInjury, tag), "%s/%s", entry, tag)
		}
		for _, got := range next.MechanismOfInjury {
			_, ok := vocabulary.Canonical(got)
			require.True(t, ok, got)
		}
	}
}

func TestMergeKeepsStoredTagsOutsideVocabulary(t *testing.T) {
	narrowed := Vocabulary{"GSW", "IED"}
	current := Card{MechanismOfInjury: []string{"Blunt", "GSW"}}

	next, report := NewMerger(nil, narrowed).Merge(current, PartialRecord{
		Injury: []string{"IED blast", "blunt trauma"},
	})
	require.Equal(t, []string{"GSW", "IED", "Blunt"}, next.MechanismOfInjury)
	require.Equal(t, []string{"blunt trauma"}, report.Discarded)
	require.Equal(t, []string{FieldMechanismOfInjury}, report.Changed)

	again, report := NewMerger(nil, narrowed).Merge(next, PartialRecord{Injury: []string{"ied"}})
	require.Equal(t, next, again)
	require.Empty(t, report.Changed)
}

func TestVocabularyUnknownAndRetain(t *testing.T) {
	vocabulary := DefaultVocabulary()
	tags := []string{"stab", "gsw", " ", "Stab", "Chemical", "GSW"}

	require.Equal(t, []string{"stab", "Chemical"}, vocabulary.Unknown(tags))
	require.Equal(t, []string{"GSW"}, vocabulary.Normalize(tags))
	require.Equal(t, []string{"GSW", "stab", "Chemical"}, vocabulary.Retain(tags))
	require.Empty(t, vocabulary.Unknown([]string{"IED", "burn"}))
}

func TestMergeIsIdempotent(t *testing.T) {
	rec := PartialRecord{
		Scalars: map[string]string{KeyPulse: "88", KeyUnit: "2nd Platoon"},
		Injury:  []string{"GSW", "IED", "gsw"},
	}
	merger := NewMerger(nil, nil)

	once, _ := merger.Merge(sampleCard(), rec)
	twice, report := merger.Merge(once, rec)
	require.Equal(t, once, twice)
	require.Empty(t, report.Changed)
	require.Equal(t, []string{"Blunt", "GSW", "IED"}, twice.MechanismOfInjury)
}

func TestMergeDoesNotAliasInput(t *testing.T) {
	current := sampleCard()
	next := Merge(current, PartialRecord{Injury: []string{"burn"}})
	next.MechanismOfInjury[0] = "mutated"
	require.Equal(t, []string{"Blunt"}, current.MechanismOfInjury)
}

func TestMergeWithCustomFieldMap(t *testing.T) {
	fields := DefaultFieldMap().With(map[string]string{KeyTreatments: FieldInjuryLocations})
	require.NoError(t, fields.Validate())

	next, _ := NewMerger(fields, nil).Merge(Card{}, PartialRecord{
		Scalars: map[string]string{KeyTreatments: "see chest"},
	})
	require.Equal(t, "see chest", next.InjuryLocations)
	require.Empty(t, next.TreatmentsAdministered)
}

func TestFieldMapValidate(t *testing.T) {
	require.NoError(t, DefaultFieldMap().Validate())
	require.NoError(t, DefaultFieldMap().With(IdentityFieldMap()).Validate())
	require.ErrorContains(t, FieldMap{"bogus": FieldName}.Validate(), "unknown extraction key")
	require.ErrorContains(t, FieldMap{KeyName: "nickname"}.Validate(), "unknown card field")
	require.ErrorContains(t, FieldMap{KeyInjury: FieldMechanismOfInjury}.Validate(), "vocabulary")
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
