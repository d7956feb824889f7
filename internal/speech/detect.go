package speech

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// languages the detector distinguishes. Text in any other language is
// always sent through translation.
var languages = []lingua.Language{
	lingua.English,
	lingua.Hindi,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Bengali,
	lingua.Tamil,
	lingua.Telugu,
}

// Detector identifies the language of a narrative.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector over the known languages.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(languages...).Build(),
	}
}

// Detect returns the lower-case ISO 639-1 code of text's language.
func (d *Detector) Detect(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
