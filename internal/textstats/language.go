package textstats

import "strings"

// languageGroups maps fine-grained locale codes to the coarse groups used for browsing
var languageGroups = map[string]string{
	"zh":          "zh",
	"zh-cn":       "zh",
	"zh-tw":       "zh",
	"zh-hk":       "zh",
	"cmn":         "zh",
	"cmn-hans-cn": "zh",
	"cmn-hant-tw": "zh",
	"yue":         "zh",
	"yue-hant-hk": "zh",
	"en-us":       "en",
	"en-gb":       "en",
	"es-es":       "es",
	"es-mx":       "es",
	"fr-fr":       "fr",
	"de-de":       "de",
	"ja-jp":       "ja",
	"ko-kr":       "ko",
	"ar-sa":       "ar",
	"ru-ru":       "ru",
	"uk-ua":       "uk",
	"pt-br":       "pt",
	"pt-pt":       "pt",
	"it-it":       "it",
	"nl-nl":       "nl",
	"hi-in":       "hi",
	"th-th":       "th",
	"vi-vn":       "vi",
}

// languageNames holds human readable names of the language groups
var languageNames = map[string]string{
	"zh": "Chinese",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"ru": "Russian",
	"uk": "Ukrainian",
	"pt": "Portuguese",
	"it": "Italian",
	"nl": "Dutch",
	"hi": "Hindi",
	"th": "Thai",
	"vi": "Vietnamese",
}

// speechLocales maps front-end locale codes to the codes expected by the speech API
var speechLocales = map[string]string{
	"zh-cn": "cmn-Hans-CN",
	"zh-tw": "cmn-Hant-TW",
	"zh-hk": "yue-Hant-HK",
}

// LanguageGroup maps a locale code to its language group.
// Unknown codes fall back to the part before the first hyphen, or to the whole code.
func LanguageGroup(code string) string {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if normalized == "" {
		return ""
	}
	if group, ok := languageGroups[normalized]; ok {
		return group
	}
	if prefix, _, found := strings.Cut(normalized, "-"); found {
		return prefix
	}
	return normalized
}

// LanguageName returns a human readable name for a locale code, or the code itself when unknown
func LanguageName(code string) string {
	if name, ok := languageNames[LanguageGroup(code)]; ok {
		return name
	}
	return code
}

// SpeechLocale converts a front-end locale code to a speech API language code
func SpeechLocale(code string) string {
	if mapped, ok := speechLocales[strings.ToLower(strings.TrimSpace(code))]; ok {
		return mapped
	}
	return code
}

// Languages lists the known language groups with their names
func Languages() map[string]string {
	out := make(map[string]string, len(languageNames))
	for group, name := range languageNames {
		out[group] = name
	}
	return out
}
