// Package tool decides which backend tool should serve a prompt.
package tool

import "strings"

// ID identifies a backend tool. The set is closed: values only ever come from
// the constants below, never straight from user input.
type ID string

const (
	AskLLM           ID = "ask_llm"
	DownloadPDF      ID = "download_pdf"
	GenerateCodeFile ID = "generate_code_file"
	Unknown          ID = "unknown"
)

// aliases maps names the backend may answer with onto the closed set.
var aliases = map[string]ID{
	"ask_llm":                 AskLLM,
	"generate":                AskLLM,
	"download_pdf":            DownloadPDF,
	"search_and_download_pdf": DownloadPDF,
	"generate_code_file":      GenerateCodeFile,
	"unknown":                 Unknown,
}

// ParseID maps a backend tool name onto an ID. Names outside the known set
// become Unknown.
func ParseID(name string) ID {
	if id, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return Unknown
}

func (id ID) String() string {
	return string(id)
}
