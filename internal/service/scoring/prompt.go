package scoring

import (
	"fmt"
	"strings"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/service/transcript"
)

// BuildPrompt renders the scoring instructions for a transcript of
// len(turns) question/answer pairs.
func BuildPrompt(turns []models.Turn) string {
	n := len(turns)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior technical hiring manager. Your task is to analyze the following interview transcript, which contains %d question-and-answer pairs.\n\n", n)

	b.WriteString("STEP 1: INDIVIDUAL QUESTION SCORING\n")
	fmt.Fprintf(&b, "For EACH of the %d questions, you MUST provide:\n", n)
	b.WriteString("1. A score from 1-10 (1=Poor, 2-3=Below Average, 4-5=Average, 6-7=Good, 8-9=Very Good, 10=Excellent) for the answer's technical depth and problem-solving.\n")
	b.WriteString("2. A detailed 1-2 sentence justification/feedback explaining WHY you gave that specific score. Be specific about what the candidate did well or what was lacking.\n\n")

	b.WriteString("STEP 2: OVERALL SUMMARY\n")
	fmt.Fprintf(&b, "After scoring all %d questions individually, provide:\n", n)
	b.WriteString("1. A final overall score (1-10) that considers the candidate's performance across all questions.\n")
	b.WriteString("2. A comprehensive 2-3 sentence summary that:\n")
	b.WriteString("   - Highlights the candidate's key strengths\n")
	b.WriteString("   - Identifies areas for improvement\n")
	b.WriteString("   - Provides an overall assessment of their technical capabilities and fit\n\n")

	b.WriteString("Here is the interview transcript:\n\n")
	b.WriteString("Interview Transcript:\n\n")
	b.WriteString(transcript.Render(turns))
	b.WriteString("\n")

	fmt.Fprintf(&b, "IMPORTANT: You MUST provide scores and feedback for ALL %d questions individually before providing the overall summary.\n\n", n)
	fmt.Fprintf(&b, "Please provide your analysis in the following JSON format (make sure all %d questions are included):\n", n)
	b.WriteString(`{
  "question_scores": [
    {
      "question_number": 1,
      "score": 8,
      "justification": "The candidate demonstrated strong technical understanding of microservices architecture. They provided specific examples of scaling challenges they've faced, though they could have mentioned more about monitoring and observability."
    },
    {
      "question_number": 2,
      "score": 7,
      "justification": "Good explanation of database design principles, but lacked depth in discussing trade-offs between different database types. The candidate showed solid fundamentals but could improve by discussing real-world scenarios."
    },
    ...
`)
	fmt.Fprintf(&b, "    (Continue for all %d questions)\n", n)
	b.WriteString(`  ],
  "overall_score": 7.5,
  "summary": "Overall, the candidate demonstrates solid technical foundations with hands-on experience in distributed systems. Their strength lies in practical implementation experience, though they could benefit from deeper theoretical understanding of system design principles. The candidate shows promise and would be a good fit for a mid-level engineering role with room for growth in architectural decision-making."
}`)
	return b.String()
}
