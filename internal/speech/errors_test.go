package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedCategory Category
	}{
		{name: "mono", err: errors.New("Must use single channel (mono) audio, but WAV header indicates 2 channels."), expectedCategory: CategoryMonoRequired},
		{name: "sample rate", err: errors.New("sample_rate_hertz (16000) must match the value in the header (44100)"), expectedCategory: CategorySampleRate},
		{name: "encoding", err: errors.New("Invalid recognition 'config': bad encoding.."), expectedCategory: CategoryEncoding},
		{name: "quota by message", err: errors.New("Quota exceeded for quota metric"), expectedCategory: CategoryQuota},
		{name: "quota by status", err: &googleapi.Error{Code: http.StatusTooManyRequests, Message: "slow down"}, expectedCategory: CategoryQuota},
		{name: "auth by status", err: &googleapi.Error{Code: http.StatusForbidden, Message: "nope"}, expectedCategory: CategoryAuth},
		{name: "auth by message", err: errors.New("API key not valid. Please pass a valid API key."), expectedCategory: CategoryAuth},
		{name: "too large", err: &googleapi.Error{Code: http.StatusRequestEntityTooLarge, Message: "big"}, expectedCategory: CategoryTooLarge},
		{name: "duration", err: errors.New("Sync input too long. For audio longer than 1 min use LongRunningRecognize"), expectedCategory: CategoryDuration},
		{name: "network", err: fmt.Errorf("post: %w", context.DeadlineExceeded), expectedCategory: CategoryNetwork},
		{name: "generic", err: errors.New("something odd"), expectedCategory: CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categorized := Categorize(tt.err)

			assert.Equal(t, tt.expectedCategory, categorized.Category)
			assert.NotEmpty(t, categorized.Message)
		})
	}
}

func TestCategorize_GenericEchoesRawText(t *testing.T) {
	categorized := Categorize(errors.New("weird upstream failure"))

	assert.Equal(t, "Transcription failed: weird upstream failure", categorized.Message)
	assert.Equal(t, "weird upstream failure", categorized.Raw)
}

func TestCategorize_KeepsCategorizedError(t *testing.T) {
	original := &Error{Category: CategoryNoSpeech, Message: "none"}

	assert.Same(t, original, Categorize(fmt.Errorf("wrapped: %w", original)))
}

func TestCategorizeMessage(t *testing.T) {
	assert.Equal(t, CategoryMonoRequired, CategorizeMessage("stereo audio, mono required").Category)
	assert.Equal(t, CategoryGeneric, CategorizeMessage("???").Category)
}

func TestNormalizeEncoding(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		ok       bool
	}{
		{in: "", expected: DefaultEncoding, ok: true},
		{in: "ogg_opus", expected: "OGG_OPUS", ok: true},
		{in: "AMR", expected: "AMR", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			encoding, ok := NormalizeEncoding(tt.in)
			assert.Equal(t, tt.expected, encoding)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
