package tool

import "strings"

// codeKeywords are language names that mark a prompt as a code request.
var codeKeywords = []string{"python", "html", "javascript", "java", "c++", "react"}

// languages maps a keyword to the language sent to the code generator.
// Order matters: "javascript" has to be matched before "java".
var languages = []struct {
	keyword  string
	language string
}{
	{"python", "python"},
	{"html", "html"},
	{"javascript", "javascript"},
	{"java", "java"},
	{"c++", "cpp"},
	{"react", "jsx"},
}

// DefaultLanguage is used when a prompt names no known language.
const DefaultLanguage = "txt"

// Local classifies prompt with keyword heuristics alone. It is a pure function
// of the lower-cased prompt; PDF keywords win over code keywords.
func Local(prompt string) ID {
	lower := strings.ToLower(prompt)

	if strings.Contains(lower, "pdf") || strings.Contains(lower, "download") {
		return DownloadPDF
	}

	if strings.Contains(lower, "code") {
		return GenerateCodeFile
	}
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return GenerateCodeFile
		}
	}

	return Unknown
}

// Language derives the target language of a code request from its prompt.
func Language(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, l := range languages {
		if strings.Contains(lower, l.keyword) {
			return l.language
		}
	}
	return DefaultLanguage
}
