package worker

import (
	"encoding/json"

	"go.trai.ch/importcache/internal/core/domain"
)

// Operations understood by worker processes.
const (
	OpResolve      = "resolve"
	OpLibraryDoc   = "library_doc"
	OpVariablesDoc = "variables_doc"
	OpComplete     = "complete"
)

// Request is the single JSON object written to a worker's stdin.
type Request struct {
	Op      string `json:"op"`
	Request any    `json:"request"`
}

// Response is the single JSON object a worker writes to stdout.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError reports a failed operation.
type ResponseError struct {
	Message  string `json:"message"`
	NotFound bool   `json:"notFound,omitempty"`
}

// CompleteRequest is the payload of the complete operation.
type CompleteRequest struct {
	Kind    domain.ImportKind   `json:"kind"`
	Partial string              `json:"partial"`
	BaseDir string              `json:"baseDir"`
	Search  domain.SearchConfig `json:"search"`
}
