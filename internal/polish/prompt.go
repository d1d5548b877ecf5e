package polish

import (
	"fmt"
	"strings"

	"github.com/storykeeper/backend/internal/textstats"
)

func sourceLanguage(languageHint string) string {
	if languageHint == "" {
		return "the original language"
	}
	return textstats.LanguageName(languageHint)
}

func polishPrompt(rawText, languageHint string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The following is a transcript of a personal story spoken in %s.\n", sourceLanguage(languageHint))
	sb.WriteString("Translate it into natural, fluent English if needed and polish it into well-structured prose.\n")
	sb.WriteString("Fix transcription mistakes, punctuation and paragraph breaks.\n")
	sb.WriteString("Keep the narrator's voice, the first person and every fact. Do not add events, titles or commentary.\n")
	sb.WriteString("Answer with the story text only.\n\n")
	sb.WriteString("Transcript:\n")
	sb.WriteString(rawText)
	return sb.String()
}

func describePrompt(storyContent, languageHint string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a compelling description of the following story (written in %s) for a story library.\n", sourceLanguage(languageHint))
	sb.WriteString("Use 50 to 150 words of English, do not reveal the ending and do not use quotation marks.\n")
	sb.WriteString("Answer with the description only.\n\n")
	sb.WriteString("Story:\n")
	sb.WriteString(storyContent)
	return sb.String()
}
