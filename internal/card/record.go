package card

// Keys recognized in an extraction response.
const (
	KeyName            = "name"
	KeyRosterNumber    = "rosterNumber"
	KeyServiceBranch   = "serviceBranch"
	KeyUnit            = "unit"
	KeyGender          = "gender"
	KeyDateTime        = "dateTime"
	KeyAllergies       = "allergies"
	KeyInjury          = "injury"
	KeyInjuryLocations = "injuryLocations"
	KeyPulse           = "pulse"
	KeyBloodPressure   = "bloodPressure"
	KeyRespiratoryRate = "respiratoryRate"
	KeyPulseOx         = "pulseOx"
	KeyPainScale       = "painScale"
	KeyTreatments      = "treatments"
)

// RecognizedKeys lists every extraction key in the order they are requested.
var RecognizedKeys = []string{
	KeyName,
	KeyRosterNumber,
	KeyServiceBranch,
	KeyUnit,
	KeyGender,
	KeyDateTime,
	KeyAllergies,
	KeyInjury,
	KeyInjuryLocations,
	KeyPulse,
	KeyBloodPressure,
	KeyRespiratoryRate,
	KeyPulseOx,
	KeyPainScale,
	KeyTreatments,
}

// IsRecognizedKey reports whether key is part of the extraction contract.
func IsRecognizedKey(key string) bool {
	for _, k := range RecognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// PartialRecord is the parsed output of one extraction. Absent keys carry
// no information; they never mean "clear this field".
type PartialRecord struct {
	Scalars map[string]string
	Injury  []string
}

// Get returns the scalar value for key and whether it was present.
func (r PartialRecord) Get(key string) (string, bool) {
	if r.Scalars == nil {
		return "", false
	}
	value, ok := r.Scalars[key]
	return value, ok
}

// Empty reports whether the record carries no fields at all.
func (r PartialRecord) Empty() bool {
	return len(r.Scalars) == 0 && len(r.Injury) == 0
}

// Keys returns the present keys in RecognizedKeys order.
func (r PartialRecord) Keys() []string {
	keys := make([]string, 0, len(r.Scalars)+1)
	for _, key := range RecognizedKeys {
		if key == KeyInjury {
			if len(r.Injury) > 0 {
				keys = append(keys, key)
			}
			continue
		}
		if _, ok := r.Scalars[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}
