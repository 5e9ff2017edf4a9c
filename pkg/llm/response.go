package llm

// StatusSuccess is the only DownloadPDFResponse.Status value treated as success.
const StatusSuccess = "success"

// ClassifyResponse carries the backend's tool choice.
type ClassifyResponse struct {
	Tool string `json:"tool"`
}

// GenerateResponse is returned by both the generate and code-file endpoints.
type GenerateResponse struct {
	Response string `json:"response"`
}

// DownloadPDFResponse reports the outcome of a PDF fetch.
type DownloadPDFResponse struct {
	Status string `json:"status"`
	File   string `json:"file"`          // Local filename the backend saved to
	URL    string `json:"url,omitempty"` // Where the PDF came from
	Error  string `json:"error,omitempty"`
}
