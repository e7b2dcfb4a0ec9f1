package ai

import (
	"context"
	"fmt"
	"strings"
)

// Analysis types accepted by Assistant.AnalyzeDocument.
const (
	AnalysisSummary   = "summary"
	AnalysisKeyPoints = "key_points"
	AnalysisSentiment = "sentiment"
)

var analysisPrompts = map[string]string{
	AnalysisSummary:   "Provide a comprehensive summary of this document, highlighting the main points and key takeaways.",
	AnalysisKeyPoints: "Extract and list the key points, findings, or conclusions from this document in a clear, organized format.",
	AnalysisSentiment: "Analyze the tone and sentiment of this document. Consider the emotional undertones and overall attitude.",
}

// analysisContentLimit bounds the document text embedded in analysis prompts.
const analysisContentLimit = 12000

// historyWindow bounds how many prior turns are replayed into a chat call.
const historyWindow = 6

// Assistant combines a Gateway with a personality to answer document
// questions and run canned analyses.
type Assistant struct {
	gateway     Gateway
	personality Personality
}

func NewAssistant(gateway Gateway, personalityKey string) *Assistant {
	return &Assistant{
		gateway:     gateway,
		personality: GetPersonality(personalityKey),
	}
}

func (a *Assistant) Personality() Personality { return a.personality }

// ValidAnalysisType reports whether t names a supported analysis.
func ValidAnalysisType(t string) bool {
	_, ok := analysisPrompts[t]
	return ok
}

// AnalyzeDocument runs one of the canned analyses over the document text.
func (a *Assistant) AnalyzeDocument(ctx context.Context, text, analysisType string) (string, error) {
	prompt, ok := analysisPrompts[analysisType]
	if !ok {
		prompt = analysisPrompts[AnalysisSummary]
	}
	if len(text) > analysisContentLimit {
		text = text[:analysisContentLimit]
	}

	messages := []Message{
		{Role: "system", Content: a.personality.SystemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\nDocument content:\n%s", prompt, text)},
	}
	out, err := a.gateway.Complete(ctx, messages, Options{MaxTokens: 1500, Temperature: 0.3})
	if err != nil {
		return "", err
	}
	return CleanMarkdownOutput(out), nil
}

// ChatWithDocument answers a question grounded in the retrieved context,
// replaying a bounded window of prior conversation turns.
func (a *Assistant) ChatWithDocument(ctx context.Context, question, docContext string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role: "system",
		Content: a.personality.SystemPrompt +
			"\n\nUse the following document context to answer the user's questions:\n\n" + docContext,
	})
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: question})

	out, err := a.gateway.Complete(ctx, messages, Options{MaxTokens: 1000, Temperature: 0.7})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CleanMarkdownOutput strips the code fences models like to wrap answers in.
func CleanMarkdownOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```markdown") {
		text = strings.TrimPrefix(text, "```markdown")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
