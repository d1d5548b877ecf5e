package models

import "time"

// StoryStatus is the moderation status of a story
type StoryStatus string

// StoryStatus constants
const (
	StatusDraft     StoryStatus = "draft"
	StatusPending   StoryStatus = "pending"
	StatusPublished StoryStatus = "published"
	StatusRejected  StoryStatus = "rejected"
	StatusPrivate   StoryStatus = "private"
	StatusArchived  StoryStatus = "archived"
)

// Valid reports whether s is one of the known statuses
func (s StoryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusPrivate, StatusArchived:
		return true
	}
	return false
}

// MediaRefs are weak references to files owned by media storage
type MediaRefs struct {
	ImagePath         string `json:"image_path,omitempty"`
	ImageOriginalName string `json:"image_original_name,omitempty"`
	AudioPath         string `json:"audio_path,omitempty"`
	AudioOriginalName string `json:"audio_original_name,omitempty"`
	AudioDuration     int    `json:"audio_duration,omitempty"`
	AudioFormat       string `json:"audio_format,omitempty"`
	AudioLanguage     string `json:"audio_language,omitempty"`
	AudioLanguageName string `json:"audio_language_name,omitempty"`
	VideoPath         string `json:"video_path,omitempty"`
	VideoOriginalName string `json:"video_original_name,omitempty"`
	VideoDuration     int    `json:"video_duration,omitempty"`
	VideoFormat       string `json:"video_format,omitempty"`
}

// Paths returns every non-empty media path
func (m MediaRefs) Paths() []string {
	paths := make([]string, 0, 3)
	for _, p := range []string{m.ImagePath, m.AudioPath, m.VideoPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Story represents a story row
type Story struct {
	ID                 int         `json:"id"`
	UserID             int         `json:"user_id"`
	Title              string      `json:"title"`
	Content            string      `json:"content"`
	RawTranscript      *string     `json:"raw_transcript,omitempty"`
	Polished           bool        `json:"polished"`
	Description        string      `json:"description"`
	DisplayAuthor      string      `json:"display_author,omitempty"`
	Language           string      `json:"language"`
	LanguageName       string      `json:"language_name"`
	LanguageGroup      string      `json:"language_group"`
	Media              MediaRefs   `json:"media"`
	WordCount          int         `json:"word_count"`
	ReadingTime        int         `json:"reading_time"`
	Status             StoryStatus `json:"status"`
	ViewCount          int         `json:"view_count"`
	LikeCount          int         `json:"like_count"`
	AnonymousLikeCount int         `json:"anonymous_like_count"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	PublishedAt        *time.Time  `json:"published_at,omitempty"`
	DeletedAt          *time.Time  `json:"deleted_at,omitempty"`
}

// StoryListItem is a story as shown in listings
type StoryListItem struct {
	ID                 int         `json:"id"`
	UserID             int         `json:"user_id"`
	Author             string      `json:"author"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Language           string      `json:"language"`
	LanguageName       string      `json:"language_name"`
	LanguageGroup      string      `json:"language_group"`
	ImageURL           string      `json:"image_url,omitempty"`
	HasAudio           bool        `json:"has_audio"`
	HasVideo           bool        `json:"has_video"`
	WordCount          int         `json:"word_count"`
	ReadingTime        int         `json:"reading_time"`
	Status             StoryStatus `json:"status"`
	ViewCount          int         `json:"view_count"`
	LikeCount          int         `json:"like_count"`
	AnonymousLikeCount int         `json:"anonymous_like_count"`
	TagName            string      `json:"tag_name,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	PublishedAt        *time.Time  `json:"published_at,omitempty"`
	DeletedAt          *time.Time  `json:"deleted_at,omitempty"`

	// ImagePath is resolved into ImageURL by the service
	ImagePath string `json:"-"`
}

// StoryDetail is a single story with resolved media URLs
type StoryDetail struct {
	Story
	Author   string `json:"author"`
	ImageURL string `json:"image_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	TagIDs   []int  `json:"tag_ids"`
	// LikedByViewer is only meaningful for authenticated viewers
	LikedByViewer bool `json:"liked_by_viewer"`
}

// LibraryFilter narrows the public library listing
type LibraryFilter struct {
	LanguageGroup string
	TagID         int
	Search        string
	Page          int
	Count         int
}

// SubmitStoryRequest is the payload of a new story
type SubmitStoryRequest struct {
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	RawTranscript *string   `json:"raw_transcript,omitempty"`
	Polished      bool      `json:"polished"`
	Description   string    `json:"description"`
	DisplayAuthor string    `json:"display_author"`
	Language      string    `json:"language"`
	LanguageName  string    `json:"language_name"`
	Media         MediaRefs `json:"media"`
	TagIDs        []int     `json:"tag_ids"`
	// Status is accepted for compatibility with older clients and always ignored
	Status string `json:"status,omitempty"`
}

// EditStoryRequest holds the fields an owner may change; nil fields are kept
type EditStoryRequest struct {
	Title         *string    `json:"title,omitempty"`
	Content       *string    `json:"content,omitempty"`
	RawTranscript *string    `json:"raw_transcript,omitempty"`
	Polished      *bool      `json:"polished,omitempty"`
	Description   *string    `json:"description,omitempty"`
	DisplayAuthor *string    `json:"display_author,omitempty"`
	Language      *string    `json:"language,omitempty"`
	LanguageName  *string    `json:"language_name,omitempty"`
	Media         *MediaRefs `json:"media,omitempty"`
	TagIDs        []int      `json:"tag_ids,omitempty"`
}

// EditResult reports the outcome of an owner edit
type EditResult struct {
	StoryID int         `json:"story_id"`
	Status  StoryStatus `json:"status"`
	// Resubmitted is true when the edit sent a published or rejected story back to review
	Resubmitted bool `json:"resubmitted"`
}

// StoryExportRow is one line of the admin CSV export
type StoryExportRow struct {
	ID          int
	Title       string
	Author      string
	Status      StoryStatus
	Language    string
	WordCount   int
	ReadingTime int
	ViewCount   int
	LikeCount   int
	CreatedAt   time.Time
	PublishedAt *time.Time
	DeletedAt   *time.Time
}

// StoryStats summarizes stories per status for the admin dashboard
type StoryStats struct {
	ByStatus map[StoryStatus]int `json:"by_status"`
	InBin    int                 `json:"in_bin"`
	Total    int                 `json:"total"`
}
