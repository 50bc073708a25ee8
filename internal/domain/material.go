package domain

// Flashcard is a single question/answer card.
type Flashcard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
	Topic      string `json:"topic"`
}

// FlashcardSet is the payload shape for the flashcards material kind.
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}

// QuizQuestion is a single multiple choice question.
// CorrectAnswer is a 0-based index into Options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Topic         string   `json:"topic"`
}

// Quiz is the payload shape for the quiz material kind.
type Quiz struct {
	Questions []QuizQuestion `json:"quiz"`
}

// Summary is the payload shape for the summary material kind.
type Summary struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	MainTopics []string `json:"main_topics"`
	WordCount  int      `json:"word_count"`
}

// GuideSection is one section of a study guide.
type GuideSection struct {
	Heading  string   `json:"heading"`
	Content  string   `json:"content"`
	KeyTerms []string `json:"key_terms"`
}

// StudyGuide is the payload shape for the study_guide material kind.
type StudyGuide struct {
	Title              string         `json:"title"`
	Overview           string         `json:"overview"`
	Sections           []GuideSection `json:"sections"`
	LearningObjectives []string       `json:"learning_objectives"`
	ReviewQuestions    []string       `json:"review_questions"`
}
