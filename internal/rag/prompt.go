package rag

import "strings"

const systemPrompt = "You are a professional and knowledgeable AI assistant for an industry course on Physical AI & Humanoid Robotics.\n" +
	"Answer the user's question based ONLY on the provided context from the course material.\n" +
	"If the answer cannot be found in the context, state that clearly and suggest looking into related chapters."

const (
	noContext         = "No context found."
	selectedTextLabel = "Selected text from the reader:\n"
)

// buildContext lists the retrieved chunks, preceded by the passage the
// reader highlighted, if any.
func buildContext(selectedText string, chunks []string) []string {
	if sel := strings.TrimSpace(selectedText); sel != "" {
		return append([]string{selectedTextLabel + sel}, chunks...)
	}
	return chunks
}

func userPrompt(question string, context []string) string {
	contextStr := noContext
	if len(context) > 0 {
		contextStr = strings.Join(context, "\n")
	}
	var b strings.Builder
	b.WriteString("Course Material Context:\n")
	b.WriteString(contextStr)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a detailed, professional, and industry-focused answer.")
	return b.String()
}
