package docqa

// Mode selects the ranking pipeline on the server.
type Mode string

// Ranking modes.
const (
	ModeBaseline Mode = "baseline"
	ModeHybrid   Mode = "hybrid"
	ModeLearned  Mode = "learned"
)

// AskRequest is a question for POST /ask.
type AskRequest struct {
	Query string `json:"query"`
	// TopK of 0 lets the server pick its default.
	TopK int  `json:"top_k,omitempty"`
	Mode Mode `json:"mode,omitempty"`
}

// Answer is the server's reply to a question.
type Answer struct {
	// Text is nil when the server abstained.
	Text     *string   `json:"answer"`
	Mode     Mode      `json:"mode"`
	Contexts []Context `json:"contexts"`
	Reason   string    `json:"reason,omitempty"`
	Details  string    `json:"details,omitempty"`
}

// Abstained reports whether the server declined to answer.
func (a Answer) Abstained() bool { return a.Text == nil }

// Context is one ranked supporting passage.
type Context struct {
	DocName    string  `json:"doc_name"`
	DocTitle   string  `json:"doc_title"`
	DocURL     string  `json:"doc_url"`
	PageNum    int     `json:"page_num"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
	Signals    Signals `json:"signals"`
}

// Signals are the per-stage scores behind a rank. Nil means the stage did not run.
type Signals struct {
	Vector  float64  `json:"vector"`
	Lexical *float64 `json:"lexical,omitempty"`
	Hybrid  *float64 `json:"hybrid,omitempty"`
	Learned *float64 `json:"learned,omitempty"`
}

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"/"missing"
}

// OK reports whether every required component is up.
func (h HealthStatus) OK() bool { return h.Status == "ok" }
