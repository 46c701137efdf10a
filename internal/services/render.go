package services

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-tutor-bot/internal/domain"
)

// Greeting is sent in reply to /start.
const Greeting = "Hi! Use /ask to get a translation question.\nReply to the question message with your translation."

// markdownEscaper escapes the legacy Markdown entity characters so a
// sentence can never open a stray entity.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// RenderQuestion builds the Markdown question message.
func RenderQuestion(qid string, dir domain.Direction, sentence string) string {
	return fmt.Sprintf("📝 Question ID: %s\nTranslate this sentence:\n%s\n\n“%s”\n\nReply *to this message* with your translation.",
		qid, dir.Label(), markdownEscaper.Replace(sentence))
}

// RenderConfirmation builds the reply sent after an answer is matched.
func RenderConfirmation(botReply string) string {
	return "✅ Received.\n\n🤖 " + botReply
}
