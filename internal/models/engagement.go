package models

// LikeResult is the state of a like after a toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
	// AnonymousLikeEstimate counts session-scoped likes and is not deduplicated across sessions
	AnonymousLikeEstimate int `json:"anonymous_like_estimate"`
}

// StoryCounters holds the engagement counters of a story
type StoryCounters struct {
	ViewCount          int
	LikeCount          int
	AnonymousLikeCount int
}
