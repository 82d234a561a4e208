package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector identifies the language of user input, restricted to the
// languages the assistant answers in: Slovak, Hungarian, and English.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector for the supported language set.
func NewDetector() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.Slovak, lingua.Hungarian, lingua.English).
		Build()
	return &Detector{detector: d}
}

// Detect returns "sk", "hu", or "en". Inputs too short to classify
// reliably default to English.
func (d *Detector) Detect(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 10 {
		return "en"
	}

	lang, ok := d.detector.DetectLanguageOf(trimmed)
	if !ok {
		return "en"
	}

	switch lang {
	case lingua.Slovak:
		return "sk"
	case lingua.Hungarian:
		return "hu"
	default:
		return "en"
	}
}
