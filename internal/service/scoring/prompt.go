package scoring

import (
	"fmt"
	"strings"

	"github.com/ashwinyue/code-mentor/internal/service/rag"
)

const (
	maxPromptCodeLen         = 4000
	maxPromptRequirementsLen = 500
)

const systemPrompt = "You are an experienced programming instructor grading student project submissions. You respond with strict JSON only."

// rubricDescription 四项固定评分标准
const rubricDescription = `Grading rubric (each criterion scored 0-5):
- comprehension: does the code show the student understood the problem?
- design: architecture, separation of responsibilities, use of abstractions
- implementation: code quality, conventions, readability
- functionality: does the code satisfy the functional requirements?`

// BuildPrompt 组装评分提示词
// 包含评分标准、截断后的需求与代码，以及可选的历史评估示例
func BuildPrompt(code, requirements string, examples []rag.HistoricalExample) string {
	var b strings.Builder

	b.WriteString(rubricDescription)
	b.WriteString("\n\n")

	if block := rag.FormatExamples(examples); block != "" {
		b.WriteString(block)
	}

	b.WriteString(`Respond ONLY with a JSON object in exactly this shape:

{
  "comprehension_score": 4,
  "design_score": 3,
  "implementation_score": 4,
  "functionality_score": 4,
  "comprehension_feedback": "…",
  "design_feedback": "…",
  "implementation_feedback": "…",
  "functionality_feedback": "…"
}

`)

	fmt.Fprintf(&b, "Requirements:\n%s\n\n", truncate(requirements, maxPromptRequirementsLen))
	fmt.Fprintf(&b, "Code to evaluate:\n%s\n\n", truncate(code, maxPromptCodeLen))
	b.WriteString("ONLY JSON, NO EXTRA TEXT:")

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
