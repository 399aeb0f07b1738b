package chi

import (
	askuc "github.com/kailas-cloud/docqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeRetrievalUnavailable   = "retrieval_unavailable"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeModelNotTrained        = "model_not_trained"
	codeInternalError          = "internal_error"
)

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Query string `json:"query" validate:"required,max=4096"`
	// TopK of 0 selects the server default.
	TopK int    `json:"top_k" validate:"gte=0"`
	Mode string `json:"mode" validate:"max=16"`
}

// AskResponse is the body of a successful POST /ask. Answer is null on abstention.
type AskResponse struct {
	Answer   *string           `json:"answer"`
	Mode     string            `json:"mode"`
	Contexts []ContextResponse `json:"contexts"`
	Reason   string            `json:"reason,omitempty"`
	Details  string            `json:"details,omitempty"`
}

// ContextResponse is one ranked passage.
type ContextResponse struct {
	DocName    string          `json:"doc_name"`
	DocTitle   string          `json:"doc_title"`
	DocURL     string          `json:"doc_url"`
	PageNum    int             `json:"page_num"`
	ChunkIndex int             `json:"chunk_index"`
	Score      float64         `json:"score"`
	Content    string          `json:"content"`
	Signals    SignalsResponse `json:"signals"`
}

// SignalsResponse exposes the scores behind a rank. Absent signals are omitted.
type SignalsResponse struct {
	Vector  float64  `json:"vector"`
	Lexical *float64 `json:"lexical,omitempty"`
	Hybrid  *float64 `json:"hybrid,omitempty"`
	Learned *float64 `json:"learned,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func askResponseFrom(res askuc.Result) AskResponse {
	resp := AskResponse{
		Mode:     string(res.Mode),
		Contexts: make([]ContextResponse, len(res.Contexts)),
		Reason:   res.Reason,
		Details:  res.Details,
	}
	if !res.Abstained {
		answer := res.Answer
		resp.Answer = &answer
	}
	for i, c := range res.Contexts {
		resp.Contexts[i] = ContextResponse{
			DocName:    c.DocName,
			DocTitle:   c.DocTitle,
			DocURL:     c.DocURL,
			PageNum:    c.PageNum,
			ChunkIndex: c.ChunkIndex,
			Score:      c.Score,
			Content:    c.Content,
			Signals: SignalsResponse{
				Vector:  c.Signals.Vector,
				Lexical: c.Signals.Lexical,
				Hybrid:  c.Signals.Hybrid,
				Learned: c.Signals.Learned,
			},
		}
	}
	return resp
}

func healthResponseFrom(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(report.Status), Checks: checks}
}
