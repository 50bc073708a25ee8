package generator

import (
	"fmt"

	"github.com/davidbz/markl/internal/domain"
)

const flashcardsSystem = `You are an expert educational content creator.
Generate high-quality flashcards that test key concepts and understanding.
Return ONLY valid JSON format with no additional text.`

const quizSystem = `You are an expert at creating educational assessments.
Generate challenging but fair multiple choice questions.
Return ONLY valid JSON format with no additional text.`

const summarySystem = `You are an expert at creating clear, concise summaries.
Extract the most important information and present it coherently.
Return ONLY valid JSON format with no additional text.`

const studyGuideSystem = `You are an expert educational content organizer.
Create structured study guides that help students learn effectively.
Return ONLY valid JSON format with no additional text.`

func flashcardsPrompt(content string, count int) string {
	return fmt.Sprintf(`Based on the following content, generate exactly %d flashcards.

Content:
%s

Return a JSON object with this structure:
{
    "flashcards": [
        {
            "question": "Question text here",
            "answer": "Answer text here",
            "difficulty": "easy|medium|hard",
            "topic": "Main topic"
        }
    ]
}

Focus on key concepts, definitions, and important relationships. Make questions clear and answers concise.`, count, content)
}

func quizPrompt(content string, count int) string {
	return fmt.Sprintf(`Based on the following content, generate exactly %d multiple choice quiz questions.

Content:
%s

Return a JSON object with this structure:
{
    "quiz": [
        {
            "question": "Question text",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correct_answer": 0,
            "explanation": "Why this is correct",
            "difficulty": "easy|medium|hard",
            "topic": "Main topic"
        }
    ]
}

Make distractors plausible but clearly wrong. Include explanations for correct answers.`, count, content)
}

// summaryLengthGuide maps a requested length to an instruction hint.
// An unknown length falls back to medium.
func summaryLengthGuide(length domain.SummaryLength) string {
	switch length {
	case domain.LengthShort:
		return "2-3 sentences"
	case domain.LengthLong:
		return "2-3 paragraphs"
	case domain.LengthMedium:
		return "1 paragraph (5-7 sentences)"
	default:
		return "1 paragraph (5-7 sentences)"
	}
}

func summaryPrompt(content string, length domain.SummaryLength) string {
	return fmt.Sprintf(`Summarize the following content in %s.

Content:
%s

Return a JSON object with this structure:
{
    "summary": "Your summary here",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "main_topics": ["Topic 1", "Topic 2"],
    "word_count": <number>
}

Focus on main ideas and critical information.`, summaryLengthGuide(length), content)
}

func studyGuidePrompt(content string) string {
	return fmt.Sprintf(`Create a comprehensive study guide based on this content:

Content:
%s

Return a JSON object with this structure:
{
    "title": "Study Guide Title",
    "overview": "Brief overview",
    "sections": [
        {
            "heading": "Section name",
            "content": "Section content",
            "key_terms": ["term1", "term2"]
        }
    ],
    "learning_objectives": ["Objective 1", "Objective 2"],
    "review_questions": ["Question 1", "Question 2"]
}`, content)
}
