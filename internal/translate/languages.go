package translate

import "strings"

// Language is an ISO 639-1 code with its English name
type Language struct {
	Code string
	Name string
}

// SourceLanguages are the spoken languages offered for transcription
var SourceLanguages = []Language{
	{Code: "ko", Name: "Korean"},
	{Code: "en", Name: "English"},
	{Code: "ja", Name: "Japanese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "ru", Name: "Russian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "vi", Name: "Vietnamese"},
}

// TargetLanguages are the languages offered for translation
var TargetLanguages = []Language{
	{Code: "ko", Name: "Korean"},
	{Code: "en", Name: "English"},
	{Code: "ja", Name: "Japanese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "ru", Name: "Russian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
	{Code: "th", Name: "Thai"},
	{Code: "id", Name: "Indonesian"},
	{Code: "ms", Name: "Malay"},
	{Code: "it", Name: "Italian"},
	{Code: "nl", Name: "Dutch"},
	{Code: "pl", Name: "Polish"},
	{Code: "sv", Name: "Swedish"},
	{Code: "da", Name: "Danish"},
	{Code: "no", Name: "Norwegian"},
	{Code: "fi", Name: "Finnish"},
	{Code: "tr", Name: "Turkish"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "cs", Name: "Czech"},
	{Code: "el", Name: "Greek"},
	{Code: "he", Name: "Hebrew"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "ro", Name: "Romanian"},
	{Code: "bg", Name: "Bulgarian"},
	{Code: "hr", Name: "Croatian"},
	{Code: "sk", Name: "Slovak"},
	{Code: "sl", Name: "Slovenian"},
	{Code: "sr", Name: "Serbian"},
	{Code: "lt", Name: "Lithuanian"},
	{Code: "lv", Name: "Latvian"},
	{Code: "et", Name: "Estonian"},
	{Code: "tl", Name: "Filipino"},
	{Code: "sw", Name: "Swahili"},
	{Code: "bn", Name: "Bengali"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "ur", Name: "Urdu"},
	{Code: "fa", Name: "Persian"},
	{Code: "mn", Name: "Mongolian"},
	{Code: "ka", Name: "Georgian"},
	{Code: "az", Name: "Azerbaijani"},
	{Code: "kk", Name: "Kazakh"},
	{Code: "uz", Name: "Uzbek"},
}

// LanguageName returns the English name for code, or code itself when unknown
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range TargetLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// IsSourceLanguage reports whether code is a supported transcription language
func IsSourceLanguage(code string) bool {
	for _, l := range SourceLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}
