package backend

import "time"

// DefaultTimeout bounds every backend call when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// Config is the tool backend client configuration.
type Config struct {
	// Base URL of the tool backend (e.g., "http://localhost:8010")
	BaseURL string

	// Timeout applied to each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Paths of the individual endpoints, relative to BaseURL.
	Endpoints Endpoints
}

// Endpoints holds the path of each backend endpoint.
type Endpoints struct {
	Classify    string `toml:"classify"`
	Generate    string `toml:"generate"`
	DownloadPDF string `toml:"download_pdf"`
	CodeFile    string `toml:"generate_code_file"`
	Ping        string `toml:"ping"`
}

// DefaultEndpoints returns the paths served by the stock tool bridge.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Classify:    "/detect_tool",
		Generate:    "/generate",
		DownloadPDF: "/download_pdf",
		CodeFile:    "/generate_code_file",
		Ping:        "/ping",
	}
}

// withDefaults fills any unset endpoint path with its default.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Classify == "" {
		e.Classify = d.Classify
	}
	if e.Generate == "" {
		e.Generate = d.Generate
	}
	if e.DownloadPDF == "" {
		e.DownloadPDF = d.DownloadPDF
	}
	if e.CodeFile == "" {
		e.CodeFile = d.CodeFile
	}
	if e.Ping == "" {
		e.Ping = d.Ping
	}
	return e
}
