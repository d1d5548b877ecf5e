package services

import (
	"context"
	"strings"

	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/speech"
	"github.com/storykeeper/backend/internal/textstats"
	"go.uber.org/zap"
)

// MaxChunkBytes caps one audio chunk so its base64 form stays under the 10MB upstream ceiling
const MaxChunkBytes = 7864320

// Transcriber is the speech-to-text collaborator
type Transcriber interface {
	// Method Transcribe recognizes speech in audio.
	//
	// "languageHint" is a front-end locale such as zh-CN, "encoding" a speech encoding such as WEBM_OPUS.
	//
	// Failures are returned as *speech.Error carrying a user-facing category.
	Transcribe(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error)
}

// Polisher is the text polishing collaborator
type Polisher interface {
	// Method Polish rewrites a raw transcript into readable prose.
	//
	// Transient failures are already retried by the implementation.
	Polish(ctx context.Context, rawText, languageHint string) (*models.PolishedText, error)
	// Method Describe suggests a short promotional description of a story.
	Describe(ctx context.Context, storyContent, languageHint string) (string, error)
}

type transcriptionService struct {
	transcriber Transcriber
	polisher    Polisher
	logger      *zap.Logger
}

// NewTranscriptionService creates the audio to draft pipeline
func NewTranscriptionService(transcriber Transcriber, polisher Polisher, logger *zap.Logger) *transcriptionService {
	return &transcriptionService{transcriber: transcriber, polisher: polisher, logger: logger}
}

// TranscribeChunk transcribes one recorded chunk
func (s *transcriptionService) TranscribeChunk(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error) {
	if len(audio) == 0 {
		return nil, newValidationError("audio", "audio is required")
	}
	if len(audio) > MaxChunkBytes {
		return nil, ErrChunkTooLarge
	}
	if _, ok := speech.NormalizeEncoding(encoding); !ok {
		return nil, speech.CategorizeMessage("unsupported encoding " + encoding)
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, languageHint, encoding)
	if err != nil {
		return nil, speech.Categorize(err)
	}
	return transcript, nil
}

// Polish prefers the polished text as content but always keeps the raw transcript.
// Polishing failures degrade to the raw text with Polished false.
func (s *transcriptionService) Polish(ctx context.Context, rawText, languageHint string) (*models.PolishResult, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, newValidationError("text", "text is required")
	}

	result := &models.PolishResult{
		Content:        rawText,
		RawTranscript:  rawText,
		SourceLanguage: languageHint,
	}

	polished, err := s.polisher.Polish(ctx, rawText, languageHint)
	if err != nil {
		s.logger.Warn("polishing failed, keeping raw transcript", zap.String("language", languageHint), zap.Error(err))
		result.PolishError = err.Error()
		return result, nil
	}

	text := strings.TrimSpace(polished.Text)
	if text == "" {
		result.PolishError = "empty polishing result"
		return result, nil
	}

	result.Content = text
	result.Polished = true
	if polished.SourceLanguage != "" {
		result.SourceLanguage = polished.SourceLanguage
	}
	return result, nil
}

// Process runs transcription then polishing and returns a draft with derived fields
func (s *transcriptionService) Process(ctx context.Context, audio []byte, languageHint, encoding string) (*models.DraftResult, error) {
	transcript, err := s.TranscribeChunk(ctx, audio, languageHint, encoding)
	if err != nil {
		return nil, err
	}

	language := languageHint
	if language == "" {
		language = transcript.Language
	}

	polished, err := s.Polish(ctx, transcript.Text, language)
	if err != nil {
		return nil, err
	}

	stats := textstats.Compute(polished.Content)
	return &models.DraftResult{
		PolishResult: *polished,
		Confidence:   transcript.Confidence,
		Language:     language,
		LanguageName: textstats.LanguageName(language),
		WordCount:    stats.WordCount,
		ReadingTime:  stats.ReadingTime,
	}, nil
}

// Describe suggests a description for the story content
func (s *transcriptionService) Describe(ctx context.Context, content, languageHint string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newValidationError("content", "content is required")
	}
	return s.polisher.Describe(ctx, content, languageHint)
}
