package agents

import (
	"fmt"
	"strings"

	"github.com/devfork/arena/internal/domain/model"
)

// FormatChallengePrompt renders a challenge into the solving prompt. Only the
// first three non-hidden test cases are shown; hidden cases stay hidden.
func FormatChallengePrompt(challenge *model.Challenge) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert programmer solving a coding challenge.\n\n")
	fmt.Fprintf(&b, "Challenge: %s\n", challenge.Title)
	fmt.Fprintf(&b, "Difficulty: %s\n\n", challenge.Difficulty)
	fmt.Fprintf(&b, "Description:\n%s\n", challenge.Description)

	shown := 0
	for _, tc := range challenge.TestCases {
		if tc.IsHidden || shown >= 3 {
			continue
		}
		shown++
		if shown == 1 {
			b.WriteString("\nTest Cases:\n")
		}
		fmt.Fprintf(&b, "\nTest %d:\n  Input: %s\n  Expected Output: %s\n", shown, tc.Input, tc.ExpectedOutput)
	}

	if challenge.Constraints != nil && *challenge.Constraints != "" {
		fmt.Fprintf(&b, "\nConstraints:\n%s\n", *challenge.Constraints)
	}
	if len(challenge.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s\n", strings.Join(challenge.Tags, ", "))
	}

	b.WriteString(`
Please provide a complete, working Python solution. Your code should:
1. Read input from stdin and write the answer to stdout
2. Be efficient and handle all edge cases
3. Pass all test cases

Return ONLY the Python code, without any explanations or markdown formatting.
`)

	return b.String()
}

// FormatIterationPrompt renders the refinement prompt used after a rejected attempt.
func FormatIterationPrompt(challenge *model.Challenge, previousCode, failure string) string {
	return fmt.Sprintf(`You are an expert programmer debugging and improving a solution to a coding challenge.

Challenge: %s
Description: %s

Your previous solution:
`+"```python\n%s\n```"+`

The solution failed with the following error/test failures:
%s

Please analyze the error and provide a corrected solution. Consider:
1. What caused the error or test failure?
2. Are there edge cases that weren't handled?
3. Is the algorithm correct?

Provide a complete, corrected Python solution that fixes these issues.
Return ONLY the Python code, without any explanations or markdown formatting.
`, challenge.Title, challenge.Description, previousCode, failure)
}
