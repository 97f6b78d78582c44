package prompt

import (
	"fmt"
	"strings"
)

// builder helpers assemble prompts line by line, mirroring how the prompts
// read when printed.

func buildChainOfThought(cfg Config) string {
	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Task: %s\n", cfg.Task),
		"Think through this step-by-step:",
		"1. First, identify the key elements of the problem",
		"2. Break down the problem into smaller parts",
		"3. Solve each part systematically",
		"4. Combine the solutions and verify the result",
		"\nLet's work through this carefully:",
	)
	if len(cfg.Constraints) > 0 {
		lines = append(lines, "\nConstraints to consider:")
		for _, c := range cfg.Constraints {
			lines = append(lines, "- "+c)
		}
	}
	return strings.Join(lines, "\n")
}

func buildFewShot(cfg Config) string {
	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines, fmt.Sprintf("Task: %s\n", cfg.Task))
	if len(cfg.Examples) > 0 {
		lines = append(lines, "Here are some examples:\n")
		for i, ex := range cfg.Examples {
			lines = append(lines,
				fmt.Sprintf("Example %d:", i+1),
				"Input: "+ex.Input,
				"Output: "+ex.Output+"\n",
			)
		}
	}
	lines = append(lines, "Now, apply the same pattern to solve the following:")
	return strings.Join(lines, "\n")
}

func buildRoleBased(cfg Config) string {
	role := cfg.Role
	if role == "" {
		role = "expert assistant"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("You are a %s.\n", role))
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Background: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Your task: %s\n", cfg.Task),
		"Approach this with your expertise, providing:",
		"- Professional insights",
		"- Practical recommendations",
		"- Clear explanations",
	)
	if len(cfg.Constraints) > 0 {
		lines = append(lines, "\nKeep in mind:")
		for _, c := range cfg.Constraints {
			lines = append(lines, "- "+c)
		}
	}
	return strings.Join(lines, "\n")
}

func buildStructured(cfg Config) string {
	format := cfg.OutputFormat
	if format == "" {
		format = "JSON"
	}

	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Task: %s\n", cfg.Task),
		fmt.Sprintf("Provide your response in %s format.\n", format),
		"Structure your response with:",
		"- Clear sections/fields",
		"- Consistent formatting",
		"- Complete information",
	)
	if len(cfg.Constraints) > 0 {
		lines = append(lines, "\nRequirements:")
		for _, c := range cfg.Constraints {
			lines = append(lines, "- "+c)
		}
	}
	return strings.Join(lines, "\n")
}

func buildReAct(cfg Config) string {
	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Task: %s\n", cfg.Task),
		"Use the ReAct framework to solve this:\n",
		"For each step, follow this pattern:",
		"Thought: [Your reasoning about what to do next]",
		"Action: [The action you decide to take]",
		"Observation: [What you observe from the action]",
		"... (repeat until solved)",
		"Final Answer: [Your conclusion]\n",
		"Begin your analysis:",
	)
	return strings.Join(lines, "\n")
}

func buildTreeOfThoughts(cfg Config) string {
	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Task: %s\n", cfg.Task),
		"Explore this problem using Tree of Thoughts:\n",
		"1. Generate 3 different initial approaches",
		"2. For each approach, evaluate:",
		"   - Feasibility (1-10)",
		"   - Potential issues",
		"   - Expected outcome",
		"3. Select the most promising path",
		"4. Develop it further, backtracking if needed",
		"5. Present your final solution with reasoning\n",
		"Start by listing your three approaches:",
	)
	return strings.Join(lines, "\n")
}

func buildSelfConsistency(cfg Config) string {
	var lines []string
	if cfg.Context != "" {
		lines = append(lines, fmt.Sprintf("Context: %s\n", cfg.Context))
	}
	lines = append(lines,
		fmt.Sprintf("Task: %s\n", cfg.Task),
		"Apply self-consistency checking:\n",
		"1. Solve this problem 3 different ways",
		"2. For each solution, show your work",
		"3. Compare all solutions",
		"4. Identify the most consistent/reliable answer",
		"5. Explain why this answer is most trustworthy\n",
		"Solution 1:",
	)
	return strings.Join(lines, "\n")
}
