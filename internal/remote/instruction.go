package remote

import (
	"strings"

	"github.com/rbright/tccc/internal/card"
)

var keyHints = map[string]string{
	card.KeyName:            "patient name",
	card.KeyRosterNumber:    "battle roster number",
	card.KeyServiceBranch:   "service branch",
	card.KeyUnit:            "unit",
	card.KeyGender:          "gender",
	card.KeyDateTime:        "date and time of injury",
	card.KeyAllergies:       "known allergies",
	card.KeyInjury:          "mechanism of injury, as an array of short strings",
	card.KeyInjuryLocations: "where on the body the injuries are",
	card.KeyPulse:           "pulse rate",
	card.KeyBloodPressure:   "blood pressure",
	card.KeyRespiratoryRate: "respiratory rate",
	card.KeyPulseOx:         "pulse oximetry reading",
	card.KeyPainScale:       "pain scale 0-10",
	card.KeyTreatments:      "treatments administered",
}

// Instruction is the fixed system message sent with every extraction.
var Instruction = buildInstruction(card.RecognizedKeys)

func buildInstruction(keys []string) string {
	var b strings.Builder
	b.WriteString("You are a medical assistant helping to extract information from a spoken report about a casualty. ")
	b.WriteString("Extract the following details if present:\n")
	for _, key := range keys {
		b.WriteString("- ")
		b.WriteString(key)
		if hint := keyHints[key]; hint != "" {
			b.WriteString(" (")
			b.WriteString(hint)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("Respond with a single flat JSON object using exactly these keys. ")
	b.WriteString("Every value is a string except ")
	b.WriteString(card.KeyInjury)
	b.WriteString(", which is an array of strings. ")
	b.WriteString("Omit keys that are not mentioned. ")
	b.WriteString("Do not include markdown formatting or code blocks.")
	return b.String()
}
