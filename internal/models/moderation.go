package models

// TransitionResult is the outcome of a conditional lifecycle transition
type TransitionResult string

// TransitionResult constants
const (
	TransitionApplied    TransitionResult = "applied"
	TransitionNotFound   TransitionResult = "not_found"
	TransitionWrongState TransitionResult = "wrong_state"
	// TransitionFailed marks an item whose processing errored inside a batch
	TransitionFailed TransitionResult = "failed"
)

// BatchResult reports a batch transition per id and in aggregate
type BatchResult struct {
	Affected int                      `json:"affected"`
	Results  map[int]TransitionResult `json:"results"`
}

// NewBatchResult creates an empty batch result
func NewBatchResult() *BatchResult {
	return &BatchResult{Results: make(map[int]TransitionResult)}
}

// Record stores the result of one id
func (b *BatchResult) Record(id int, result TransitionResult) {
	b.Results[id] = result
	if result == TransitionApplied {
		b.Affected++
	}
}

// BatchRequest is the payload of batch moderation endpoints
type BatchRequest struct {
	IDs []int `json:"ids"`
}

// RejectRequest optionally explains a rejection to the owner
type RejectRequest struct {
	Reason string `json:"reason"`
}
