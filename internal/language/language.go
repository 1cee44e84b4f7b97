// Package language holds the practice languages the app recognizes.
package language

import "fmt"

// Language represents a supported recognition language
type Language struct {
	Code       string // ISO 639-1 code (e.g., "en", "es")
	Name       string // English name
	NativeName string // Native name
}

// languages is the master list. English is the primary practice
// target; the rest are offered for mixed-language sessions.
var languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "tr", Name: "Turkish", NativeName: "Türkçe"},
	{Code: "pl", Name: "Polish", NativeName: "Polski"},
	{Code: "uk", Name: "Ukrainian", NativeName: "Українська"},
	{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt"},
	{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages))
	for _, l := range languages {
		codeIndex[l.Code] = l
	}
}

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// AllCodes returns the supported language codes.
func AllCodes() []string {
	codes := make([]string, len(languages))
	for i, l := range languages {
		codes[i] = l.Code
	}
	return codes
}

// Lookup returns the language for a code.
func Lookup(code string) (Language, bool) {
	l, ok := codeIndex[code]
	return l, ok
}

// IsValid reports whether code names a supported language.
func IsValid(code string) bool {
	_, ok := codeIndex[code]
	return ok
}

// Validate returns a descriptive error for unsupported codes.
func Validate(code string) error {
	if !IsValid(code) {
		return fmt.Errorf("unsupported language: %q (use an ISO 639-1 code like \"en\")", code)
	}
	return nil
}
