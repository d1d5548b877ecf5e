package models

// Transcript is the output of the transcription collaborator
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// PolishedText is the output of the polishing collaborator
type PolishedText struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	Model          string `json:"model"`
}

// PolishResult keeps both the canonical content and the raw transcript
type PolishResult struct {
	Content        string `json:"content"`
	RawTranscript  string `json:"raw_transcript"`
	Polished       bool   `json:"polished"`
	SourceLanguage string `json:"source_language"`
	// PolishError explains why the raw transcript was kept
	PolishError string `json:"polish_error,omitempty"`
}

// DraftResult is the result of the full audio pipeline, ready to be submitted
type DraftResult struct {
	PolishResult
	Confidence   float64 `json:"confidence"`
	Language     string  `json:"language"`
	LanguageName string  `json:"language_name"`
	WordCount    int     `json:"word_count"`
	ReadingTime  int     `json:"reading_time"`
}

// PolishRequest is the payload of the polishing endpoint
type PolishRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// DescribeRequest asks for a promotional description of a story
type DescribeRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}
