package chain

// Builtins returns the built-in chains, keyed by name. These ship with the
// tool and are never persisted to the user's chain file.
func Builtins() map[string]*Chain {
	return map[string]*Chain{
		"research_and_summarize": {
			Name:        "research_and_summarize",
			Description: "Research a topic and create a summary",
			Steps: []Step{
				{
					Name:           "research",
					PromptTemplate: "List 5 key points about: {topic}",
					OutputKey:      "points",
				},
				{
					Name:           "expand",
					PromptTemplate: "Expand on these points:\n{points}",
					OutputKey:      "expanded",
				},
				{
					Name:           "summarize",
					PromptTemplate: "Create a concise summary:\n{expanded}",
					OutputKey:      "summary",
				},
			},
		},
		"code_review_chain": {
			Name:        "code_review_chain",
			Description: "Multi-step code review",
			Steps: []Step{
				{
					Name:           "analyze",
					PromptTemplate: "Analyze this code for issues:\n```\n{code}\n```",
					OutputKey:      "analysis",
				},
				{
					Name:           "suggest",
					PromptTemplate: "Based on:\n{analysis}\n\nSuggest improvements.",
					OutputKey:      "suggestions",
				},
				{
					Name:           "refactor",
					PromptTemplate: "Refactor applying:\n{suggestions}\n\nCode:\n```\n{code}\n```",
					OutputKey:      "refactored",
				},
			},
		},
	}
}
