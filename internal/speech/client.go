// Package speech transcribes recorded audio through the Google Speech-to-Text REST API
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/textstats"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

// DefaultEncoding is the encoding produced by browser MediaRecorder
const DefaultEncoding = "WEBM_OPUS"

// allowedEncodings lists the encodings accepted for synchronous recognition of uploaded chunks
var allowedEncodings = map[string]struct{}{
	"WEBM_OPUS": {},
	"OGG_OPUS":  {},
	"LINEAR16":  {},
	"FLAC":      {},
	"MP3":       {},
}

// Client calls the recognize endpoint
type Client struct {
	svc    *speechapi.Service
	model  string
	logger *zap.Logger
}

// NewClient creates a speech client authenticated with an API key.
// Extra options such as option.WithEndpoint or option.WithHTTPClient are applied after the key.
func NewClient(ctx context.Context, apiKey, model string, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if model == "" {
		model = "latest_long"
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := speechapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech service: %w", err)
	}

	return &Client{svc: svc, model: model, logger: logger}, nil
}

// NormalizeEncoding upper-cases the encoding and checks it is supported, empty means DefaultEncoding
func NormalizeEncoding(encoding string) (string, bool) {
	encoding = strings.ToUpper(strings.TrimSpace(encoding))
	if encoding == "" {
		return DefaultEncoding, true
	}
	_, ok := allowedEncodings[encoding]
	return encoding, ok
}

// Transcribe recognizes speech in audio. languageHint is a front-end locale such as zh-CN.
// Failures are returned as *Error with a user-facing category.
func (c *Client) Transcribe(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error) {
	normalized, ok := NormalizeEncoding(encoding)
	if !ok {
		return nil, &Error{Category: CategoryEncoding, Message: categoryMessages[CategoryEncoding], Raw: "unsupported encoding " + encoding}
	}

	languageCode := textstats.SpeechLocale(languageHint)
	if languageCode == "" {
		languageCode = "en-US"
	}

	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:                   normalized,
			LanguageCode:               languageCode,
			EnableAutomaticPunctuation: true,
			MaxAlternatives:            1,
			Model:                      c.model,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	resp, err := c.svc.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		categorized := Categorize(err)
		c.logger.Warn("speech recognition failed",
			zap.String("category", string(categorized.Category)),
			zap.String("language", languageCode),
			zap.Int("bytes", len(audio)),
			zap.Error(err),
		)
		return nil, categorized
	}

	transcript := joinResults(resp)
	if transcript.Text == "" {
		return nil, &Error{Category: CategoryNoSpeech, Message: categoryMessages[CategoryNoSpeech]}
	}
	if transcript.Language == "" {
		transcript.Language = languageHint
	}

	return transcript, nil
}

// joinResults concatenates the best alternative of every result and averages their confidence
func joinResults(resp *speechapi.RecognizeResponse) *models.Transcript {
	out := &models.Transcript{}
	parts := make([]string, 0, len(resp.Results))
	var confidence float64

	for _, result := range resp.Results {
		if result == nil || len(result.Alternatives) == 0 || result.Alternatives[0] == nil {
			continue
		}
		best := result.Alternatives[0]
		text := strings.TrimSpace(best.Transcript)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		confidence += best.Confidence
		if out.Language == "" && result.LanguageCode != "" {
			out.Language = result.LanguageCode
		}
	}

	if len(parts) == 0 {
		return out
	}

	out.Text = strings.Join(parts, " ")
	out.Confidence = confidence / float64(len(parts))
	return out
}
