package card

import (
	"fmt"
	"sort"
)

// FieldMap routes PartialRecord scalar keys to card fields.
type FieldMap map[string]string

// DefaultFieldMap returns the clinical routes a dictation may overwrite.
// Identity fields are left to the card owner unless IdentityFieldMap is
// layered on top.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		KeyInjuryLocations: FieldInjuryLocations,
		KeyPulse:           FieldPulse,
		KeyBloodPressure:   FieldBloodPressure,
		KeyRespiratoryRate: FieldRespiratoryRate,
		KeyPulseOx:         FieldPulseOx,
		KeyPainScale:       FieldPainScale,
		KeyTreatments:      FieldTreatmentsAdministered,
	}
}

// IdentityFieldMap returns the routes for patient identity keys.
func IdentityFieldMap() FieldMap {
	return FieldMap{
		KeyName:          FieldName,
		KeyRosterNumber:  FieldBattleRosterNumber,
		KeyServiceBranch: FieldServiceBranch,
		KeyUnit:          FieldUnit,
		KeyGender:        FieldGender,
		KeyDateTime:      FieldDateTime,
		KeyAllergies:     FieldAllergies,
	}
}

// With returns a copy of m with overrides applied on top.
func (m FieldMap) With(overrides map[string]string) FieldMap {
	out := make(FieldMap, len(m)+len(overrides))
	for key, field := range m {
		out[key] = field
	}
	for key, field := range overrides {
		out[key] = field
	}
	return out
}

// Validate rejects routes from unknown keys or to non-scalar card fields.
func (m FieldMap) Validate() error {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var probe Card
	for _, key := range keys {
		if key == KeyInjury {
			return fmt.Errorf("field map: %q is merged through the mechanism vocabulary", key)
		}
		if !IsRecognizedKey(key) {
			return fmt.Errorf("field map: unknown extraction key %q", key)
		}
		if probe.fieldRef(m[key]) == nil {
			return fmt.Errorf("field map: %q routes to unknown card field %q", key, m[key])
		}
	}
	return nil
}
