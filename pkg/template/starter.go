package template

// starterTemplatesYAML seeds the templates file on first run. Users edit this
// file directly; the Manager reloads it on change.
const starterTemplatesYAML = `# Custom prompt templates.
# Add your own templates below. Placeholders use {variable} syntax.

templates:
  code_review:
    name: "Code Review"
    description: "Thorough code review with best practices"
    template: |
      You are a senior software engineer conducting a code review.

      Context: {context}

      Review the following code for:
      1. Code quality and readability
      2. Potential bugs or edge cases
      3. Performance considerations
      4. Security vulnerabilities
      5. Best practices and patterns

      Code to review:
      {task}

      Provide specific, actionable feedback with code examples where helpful.
    variables:
      - task
      - context

  explain_like_5:
    name: "Explain Like I'm 5"
    description: "Simple explanations for complex topics"
    template: |
      Explain this concept in the simplest possible terms, as if explaining to a 5-year-old:

      Topic: {task}

      Use:
      - Simple words and short sentences
      - Relatable analogies and examples
      - No jargon or technical terms
      - A friendly, encouraging tone
    variables:
      - task

  debug_helper:
    name: "Debug Helper"
    description: "Systematic debugging assistance"
    template: |
      Help me debug this issue systematically.

      Problem: {task}

      Context/Error message: {context}

      Please:
      1. Identify potential root causes
      2. Suggest diagnostic steps to isolate the issue
      3. Propose solutions in order of likelihood
      4. Explain how to prevent this in the future
    variables:
      - task
      - context

  refactor:
    name: "Refactor Code"
    description: "Improve code structure and quality"
    template: |
      Refactor the following code to improve its quality.

      Code: {task}

      Focus on: {context}

      Apply these principles:
      - DRY (Don't Repeat Yourself)
      - Single Responsibility
      - Clear naming conventions
      - Appropriate abstractions

      Show the refactored code with explanations for each change.
    variables:
      - task
      - context

  api_design:
    name: "API Design"
    description: "Design RESTful APIs"
    template: |
      Design a RESTful API for the following requirement:

      Requirement: {task}

      Additional context: {context}

      Include:
      1. Endpoint definitions (method, path, description)
      2. Request/response schemas
      3. Error handling approach
      4. Authentication considerations
      5. Example requests and responses
    variables:
      - task
      - context
`
