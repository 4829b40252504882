package user

import "github.com/Aarth-Web/ss-backend/core"

// Parent languages supported for SMS notifications.
const (
	LanguageEnglish   = "english"
	LanguageHindi     = "hindi"
	LanguageMarathi   = "marathi"
	LanguageTamil     = "tamil"
	LanguageTelugu    = "telugu"
	LanguageKannada   = "kannada"
	LanguageMalayalam = "malayalam"
	LanguageGujarati  = "gujarati"
	LanguageBengali   = "bengali"
	LanguagePunjabi   = "punjabi"
	LanguageUrdu      = "urdu"
	LanguageOdia      = "odia"
)

var languageCodes = map[string]string{
	LanguageEnglish:   "en",
	LanguageHindi:     "hi",
	LanguageMarathi:   "mr",
	LanguageTamil:     "ta",
	LanguageTelugu:    "te",
	LanguageKannada:   "kn",
	LanguageMalayalam: "ml",
	LanguageGujarati:  "gu",
	LanguageBengali:   "bn",
	LanguagePunjabi:   "pa",
	LanguageUrdu:      "ur",
	LanguageOdia:      "or",
}

// IsLanguage reports whether lang is a supported parent language.
func IsLanguage(lang string) bool {
	_, ok := languageCodes[core.CleanString(lang, true /* lower */)]
	return ok
}

// LanguageCode maps a parent language to its translation provider code.
// Unknown languages map to english.
func LanguageCode(lang string) string {
	if code, ok := languageCodes[core.CleanString(lang, true /* lower */)]; ok {
		return code
	}
	return "en"
}
