package i18n

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
}

func GetLanguagesList() []string {
	languages := make([]string, 0, len(languageNames))
	for code := range languageNames {
		languages = append(languages, code)
	}
	return languages
}

func GetLanguageName(code string) string {
	normalized := strings.ToLower(code)
	if name, ok := languageNames[normalized]; ok {
		return name
	}
	return code
}
