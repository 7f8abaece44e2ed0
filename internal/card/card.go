// Package card models the casualty card form state, the partial records
// extracted from dictation, and the merge policy between them.
package card

// Card field names as they appear in the serialized card.
const (
	FieldName                   = "name"
	FieldBattleRosterNumber     = "battleRosterNumber"
	FieldServiceBranch          = "serviceBranch"
	FieldUnit                   = "unit"
	FieldGender                 = "gender"
	FieldDateTime               = "dateTime"
	FieldAllergies              = "allergies"
	FieldMechanismOfInjury      = "mechanismOfInjury"
	FieldInjuryLocations        = "injuryLocations"
	FieldPulse                  = "pulse"
	FieldBloodPressure          = "bloodPressure"
	FieldRespiratoryRate        = "respiratoryRate"
	FieldPulseOx                = "pulseOx"
	FieldPainScale              = "painScale"
	FieldTreatmentsAdministered = "treatmentsAdministered"
	FieldFirstResponderName     = "firstResponderName"
	FieldNotes                  = "notes"
)

// EvacuationStatus is the evacuation priority selected on the card.
type EvacuationStatus string

const (
	EvacuationUrgent   EvacuationStatus = "Urgent"
	EvacuationPriority EvacuationStatus = "Priority"
	EvacuationRoutine  EvacuationStatus = "Routine"
)

// VitalSigns holds the free-text vital sign readings.
type VitalSigns struct {
	Pulse           string `json:"pulse"`
	BloodPressure   string `json:"bloodPressure"`
	RespiratoryRate string `json:"respiratoryRate"`
	PulseOx         string `json:"pulseOx"`
	PainScale       string `json:"painScale"`
}

// Card is the mutable casualty card being filled in.
type Card struct {
	Name               string `json:"name"`
	BattleRosterNumber string `json:"battleRosterNumber"`
	ServiceBranch      string `json:"serviceBranch"`
	Unit               string `json:"unit"`
	Gender             string `json:"gender"`
	DateTime           string `json:"dateTime"`
	Allergies          string `json:"allergies"`

	EvacuationStatus EvacuationStatus `json:"evacuationStatus,omitempty"`

	MechanismOfInjury []string `json:"mechanismOfInjury"`
	InjuryLocations   string   `json:"injuryLocations"`

	VitalSigns VitalSigns `json:"vitalSigns"`

	TreatmentsAdministered string `json:"treatmentsAdministered"`

	FirstResponderName string `json:"firstResponderName,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.MechanismOfInjury != nil {
		out.MechanismOfInjury = append([]string(nil), c.MechanismOfInjury...)
	}
	return out
}

// Field returns the value of a scalar card field by name.
func (c Card) Field(name string) (string, bool) {
	ref := (&c).fieldRef(name)
	if ref == nil {
		return "", false
	}
	return *ref, true
}

// fieldRef resolves a scalar card field name to its storage.
func (c *Card) fieldRef(name string) *string {
	switch name {
	case FieldName:
		return &c.Name
	case FieldBattleRosterNumber:
		return &c.BattleRosterNumber
	case FieldServiceBranch:
		return &c.ServiceBranch
	case FieldUnit:
		return &c.Unit
	case FieldGender:
		return &c.Gender
	case FieldDateTime:
		return &c.DateTime
	case FieldAllergies:
		return &c.Allergies
	case FieldInjuryLocations:
		return &c.InjuryLocations
	case FieldPulse:
		return &c.VitalSigns.Pulse
	case FieldBloodPressure:
		return &c.VitalSigns.BloodPressure
	case FieldRespiratoryRate:
		return &c.VitalSigns.RespiratoryRate
	case FieldPulseOx:
		return &c.VitalSigns.PulseOx
	case FieldPainScale:
		return &c.VitalSigns.PainScale
	case FieldTreatmentsAdministered:
		return &c.TreatmentsAdministered
	case FieldFirstResponderName:
		return &c.FirstResponderName
	case FieldNotes:
		return &c.Notes
	default:
		return nil
	}
}
