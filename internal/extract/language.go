package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguage is recorded when detection cannot produce a confident
// answer, matching the dominant language of the sources this system crawls.
const DefaultLanguage = "en"

// languageSampleChars bounds how much content the detector looks at.
const languageSampleChars = 1000

// detectionLanguages restricts the detector to the languages the crawl
// sources publish in, which keeps model loading and classification cheap.
var detectionLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Russian,
	lingua.Japanese,
	lingua.Chinese,
}

// newLanguageDetector builds the shared lingua detector.
func newLanguageDetector() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectionLanguages...).
		Build()
}

// detectLanguage returns the ISO 639-1 code of the content's language,
// sampling the head of the content only. Falls back to DefaultLanguage
// when the content is empty or the detector is not confident.
func (e *Extractor) detectLanguage(content string) string {
	sample := content
	if len(sample) > languageSampleChars {
		cut := languageSampleChars
		for cut > 0 && !utf8.RuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}
	sample = strings.TrimSpace(sample)
	if sample == "" {
		return DefaultLanguage
	}

	language, ok := e.langDetector.DetectLanguageOf(sample)
	if !ok {
		return DefaultLanguage
	}

	return strings.ToLower(language.IsoCode639_1().String())
}
