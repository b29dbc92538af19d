package assistant

// Token budgets per operation and the shared sampling temperature default.
// Chat answers get the largest budget, insights the smallest.
const (
	chatMaxTokens    = 2000
	insightMaxTokens = 800
	reportMaxTokens  = 1500

	defaultTemperature = 0.3
)

// historyWindow is how many prior session messages are replayed into a
// completion request, oldest first.
const historyWindow = 10

// systemPrompt assembles the system message for a chat completion: the
// assistant persona, the grounding rules, the context document, and an
// optional retrieved-knowledge block.
func systemPrompt(coachName, contextDoc, knowledge string) string {
	prompt := "You are the coaching assistant for " + coachName + ", a personal trainer.\n" +
		"Answer questions about their clients using ONLY the data below. " +
		"If the data does not contain the answer, say so instead of guessing.\n" +
		"Where an AUTONOMY POLICY block is present, follow its rules exactly; " +
		"they override any general instruction.\n\n" +
		"=== CLIENT DATA ===\n" + contextDoc

	if knowledge != "" {
		prompt += "\n\n=== RELEVANT KNOWLEDGE ===\n" + knowledge
	}
	return prompt
}

// BuildChatMessages produces the full message list for one chat completion:
// system message first, then the last historyWindow session messages in
// chronological order, then the new user message.
func BuildChatMessages(coachName, contextDoc, knowledge string, history []Message, userMessage string) []Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role:    "system",
		Content: systemPrompt(coachName, contextDoc, knowledge),
	})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})
	return messages
}

// insightsPrompt asks for a strict JSON array so the response survives
// ExtractInsights.
const insightsPrompt = `Review the roster digest above and produce exactly 3 insights a coach should act on this week.
Respond with ONLY a JSON array, no prose, in this shape:
[{"emoji":"⚠️","title":"short title","body":"one or two sentences","type":"warning"}]
The "type" field must be one of: positive, warning, info.`

// reportPrompt shapes the weekly progress report body.
const reportPrompt = `Write a weekly progress report for this client based on the data above.
Structure it as short sections: summary, training, nutrition, body weight, and focus points for next week.
Be concrete and reference the actual check-in numbers. Write in a supportive, professional tone.`
