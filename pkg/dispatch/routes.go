package dispatch

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/toolrelay/pkg/backend"
	"github.com/papercomputeco/toolrelay/pkg/llm"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

// Placeholders substituted for empty or missing reply fields.
const (
	NoResponse      = "⚠️ No response."
	NoCodeGenerated = "⚠️ No code generated."
	UnnamedFile     = "(unnamed file)"
)

// PDFFailed is the only detail a failed PDF download exposes.
const PDFFailed = "Failed to download PDF."

// CodeFilename returns the name a generated program is saved under.
func CodeFilename(language string) string {
	return "generated_code." + language
}

// routes is the dispatch table. Each tool is bound to one endpoint, a request
// builder and a response interpreter; both of the latter are pure.
var routes = map[tool.ID]route{
	tool.AskLLM:           generateRoute(tool.AskLLM),
	tool.Unknown:          generateRoute(tool.Unknown),
	tool.DownloadPDF:      downloadPDFRoute,
	tool.GenerateCodeFile: codeFileRoute,
}

func generateRoute(id tool.ID) route {
	return binding[llm.GenerateRequest, llm.GenerateResponse]{
		tool:     id,
		endpoint: func(e backend.Endpoints) string { return e.Generate },
		build: func(prompt string) llm.GenerateRequest {
			return llm.GenerateRequest{Prompt: prompt}
		},
		interpret: func(_ string, resp llm.GenerateResponse) (*Response, error) {
			return newResponse(id, orPlaceholder(resp.Response, NoResponse)), nil
		},
	}
}

var downloadPDFRoute = binding[llm.DownloadPDFRequest, llm.DownloadPDFResponse]{
	tool:     tool.DownloadPDF,
	endpoint: func(e backend.Endpoints) string { return e.DownloadPDF },
	build: func(prompt string) llm.DownloadPDFRequest {
		return llm.DownloadPDFRequest{Query: prompt}
	},
	interpret: func(_ string, resp llm.DownloadPDFResponse) (*Response, error) {
		if resp.Status != llm.StatusSuccess {
			return nil, &Failure{
				Tool:    tool.DownloadPDF,
				Message: PDFFailed,
				Err:     fmt.Errorf("status %q: %s", resp.Status, resp.Error),
			}
		}
		return newResponse(tool.DownloadPDF, "📄 PDF downloaded: "+orPlaceholder(resp.File, UnnamedFile)), nil
	},
	fail: func(err error) error {
		var se *backend.StatusError
		if errors.As(err, &se) {
			return &Failure{Tool: tool.DownloadPDF, Message: PDFFailed, Err: err}
		}
		return &Failure{Tool: tool.DownloadPDF, Message: err.Error(), Err: err}
	},
}

var codeFileRoute = binding[llm.CodeFileRequest, llm.GenerateResponse]{
	tool:     tool.GenerateCodeFile,
	endpoint: func(e backend.Endpoints) string { return e.CodeFile },
	build: func(prompt string) llm.CodeFileRequest {
		return llm.CodeFileRequest{Language: tool.Language(prompt), Task: prompt}
	},
	interpret: func(prompt string, resp llm.GenerateResponse) (*Response, error) {
		code := orPlaceholder(resp.Response, NoCodeGenerated)
		r := newResponse(tool.GenerateCodeFile, code)
		r.Artifact = &FileArtifact{
			Filename: CodeFilename(tool.Language(prompt)),
			Content:  []byte(code),
		}
		return r, nil
	},
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
