package speech

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Category is a user-facing class of transcription failure
type Category string

// Category constants
const (
	CategoryMonoRequired Category = "mono_required"
	CategorySampleRate   Category = "unsupported_sample_rate"
	CategoryEncoding     Category = "unsupported_encoding"
	CategoryQuota        Category = "quota_exceeded"
	CategoryAuth         Category = "auth_failed"
	CategoryTooLarge     Category = "file_too_large"
	CategoryDuration     Category = "duration_exceeded"
	CategoryNetwork      Category = "network_error"
	CategoryNoSpeech     Category = "no_speech"
	CategoryGeneric      Category = "transcription_failed"
)

var categoryMessages = map[Category]string{
	CategoryMonoRequired: "The recording must be mono. Please convert the audio to a single channel and try again.",
	CategorySampleRate:   "The audio sample rate is not supported. Please record at 16 kHz or 48 kHz and try again.",
	CategoryEncoding:     "This audio format is not supported. Please use WEBM/Opus, OGG/Opus, FLAC, WAV or MP3.",
	CategoryQuota:        "The transcription quota has been reached. Please try again later.",
	CategoryAuth:         "The transcription service rejected our credentials. Please contact the administrator.",
	CategoryTooLarge:     "The audio is too large. Please record a shorter clip.",
	CategoryDuration:     "The recording is too long to transcribe at once. Please split it into shorter parts.",
	CategoryNetwork:      "Could not reach the transcription service. Please check your connection and try again.",
	CategoryNoSpeech:     "No speech detected in the audio. Please try speaking more clearly or check your microphone.",
}

// rule maps upstream message fragments to a category, checked in order
type rule struct {
	category  Category
	fragments []string
}

var rules = []rule{
	{CategoryMonoRequired, []string{"mono", "channel"}},
	{CategorySampleRate, []string{"sample rate", "sample_rate", "samplerate", "hertz"}},
	{CategoryEncoding, []string{"encoding", "codec", "bad header", "invalid audio"}},
	{CategoryQuota, []string{"quota", "rate limit", "resource_exhausted", "resource exhausted"}},
	{CategoryAuth, []string{"api key", "api_key", "permission", "unauthenticated", "unauthorized", "forbidden", "credentials"}},
	{CategoryTooLarge, []string{"too large", "payload size", "exceeds the maximum", "request entity"}},
	{CategoryDuration, []string{"duration", "too long", "longrunningrecognize"}},
	{CategoryNetwork, []string{"connection", "timeout", "deadline", "network", "no such host", "eof", "tls", "ssl"}},
}

// Error is a categorized transcription failure
type Error struct {
	Category Category
	// Message is the guidance shown to the user
	Message string
	// Raw is the upstream error text
	Raw string
}

func (e *Error) Error() string {
	if e.Raw == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Raw)
}

// Categorize maps an upstream error to a user-facing category by status code and message fragments.
// Unmapped errors get a generic message echoing the raw text.
func Categorize(err error) *Error {
	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized
	}

	raw := err.Error()

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			raw = apiErr.Message
		}
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return newError(CategoryQuota, raw)
		case http.StatusUnauthorized, http.StatusForbidden:
			return newError(CategoryAuth, raw)
		case http.StatusRequestEntityTooLarge:
			return newError(CategoryTooLarge, raw)
		}
	}

	if category, ok := categorizeText(raw); ok {
		return newError(category, raw)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(CategoryNetwork, raw)
	}

	return &Error{
		Category: CategoryGeneric,
		Message:  fmt.Sprintf("Transcription failed: %s", raw),
		Raw:      raw,
	}
}

// CategorizeMessage maps a raw upstream message without an error value
func CategorizeMessage(raw string) *Error {
	if category, ok := categorizeText(raw); ok {
		return newError(category, raw)
	}
	return &Error{Category: CategoryGeneric, Message: fmt.Sprintf("Transcription failed: %s", raw), Raw: raw}
}

func categorizeText(raw string) (Category, bool) {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, fragment := range r.fragments {
			if strings.Contains(lower, fragment) {
				return r.category, true
			}
		}
	}
	return "", false
}

func newError(category Category, raw string) *Error {
	return &Error{Category: category, Message: categoryMessages[category], Raw: raw}
}
