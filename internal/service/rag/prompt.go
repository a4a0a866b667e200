package rag

import (
	"fmt"
	"strings"
)

const maxExampleCodeLen = 800

// FormatExamples 将历史评估格式化为提示词片段
// 无示例时返回空串，调用方直接省略该段
func FormatExamples(examples []HistoricalExample) string {
	if len(examples) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n═══════════════════════════════════════\n")
	b.WriteString("EXAMPLES OF PREVIOUS EVALUATIONS (apply the same criteria):\n")
	b.WriteString("═══════════════════════════════════════\n\n")

	for i, ex := range examples {
		code := ex.Code
		if len(code) > maxExampleCodeLen {
			code = code[:maxExampleCodeLen] + "\n// ... (code truncated)"
		}

		fmt.Fprintf(&b, "### Example %d: total score %.1f/20\n", i+1, ex.TotalScore)
		fmt.Fprintf(&b, "Rubric:\n- Comprehension: %.1f/5\n- Design: %.1f/5\n- Implementation: %.1f/5\n- Functionality: %.1f/5\n\n",
			ex.Rubric.Comprehension, ex.Rubric.Design, ex.Rubric.Implementation, ex.Rubric.Functionality)

		feedback := ex.Feedback
		if feedback == "" {
			feedback = "(no feedback recorded)"
		}
		fmt.Fprintf(&b, "Instructor feedback:\n%s\n\n", feedback)
		fmt.Fprintf(&b, "Evaluated code fragment:\n```\n%s\n```\n\n---\n", code)
	}

	b.WriteString("\nIMPORTANT: grade the new code with the SAME criteria as the examples above.\n\n")
	return b.String()
}
