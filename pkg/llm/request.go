package llm

// ClassifyRequest asks the backend which tool should serve a prompt.
type ClassifyRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateRequest is a plain prompt for the backing model.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// DownloadPDFRequest asks the backend to search for and fetch a PDF.
type DownloadPDFRequest struct {
	Query string `json:"query"`
}

// CodeFileRequest asks the backend to write a program.
type CodeFileRequest struct {
	Language string `json:"language"` // Target language (e.g. "python", "cpp")
	Task     string `json:"task"`     // What the code should do
}
