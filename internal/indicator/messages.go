package indicator

// messages holds the fixed notification text. Status lines come from the
// session; only titles and the failure fallback live here.
type messages struct {
	title      string
	errorTitle string
	errorText  string
}

var defaultMessages = messages{
	title:      "Casualty card",
	errorTitle: "Casualty card error",
	errorText:  "Dictation failed",
}
