package exam

type Type string

const (
	TypeObjective  Type = "objective"
	TypeDiscursive Type = "discursive"
	TypeMixed      Type = "mixed"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionEssay          QuestionType = "essay"
)

type Question struct {
	ID     string       `json:"id"`
	ExamID string       `json:"exam_id"`
	Text   string       `json:"text"`
	Type   QuestionType `json:"type"`
	// Options is required for multiple_choice, empty otherwise.
	Options []string `json:"options,omitempty"`
	// CorrectAnswer is stripped before an exam is served to students.
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	Score         float64 `json:"score"`
	Position      int     `json:"position"`
}

// Exam is a scheduled assessment. Date fields are unix seconds; zero
// means unset for the nullable ones (second_call_date,
// publication_date).
type Exam struct {
	ID                 string     `json:"id"`
	CourseID           string     `json:"course_id"`
	DisciplineID       string     `json:"discipline_id"`
	Name               string     `json:"name"`
	ExamDate           int64      `json:"exam_date"`
	DurationMinutes    int        `json:"duration_minutes"`
	Type               Type       `json:"type"`
	MaxScore           float64    `json:"max_score"` // display ceiling only
	SecondCallEligible bool       `json:"second_call_eligible"`
	SecondCallDate     int64      `json:"second_call_date,omitempty"`
	PublicationDate    int64      `json:"publication_date,omitempty"`
	CreatedAt          int64      `json:"created_at,omitempty"`
	Questions          []Question `json:"questions,omitempty"`
}

// RawMax is the grading denominator: the sum of question scores, not
// MaxScore.
func (e Exam) RawMax() float64 {
	var sum float64
	for _, q := range e.Questions {
		sum += q.Score
	}
	return sum
}

// Summary is the listing view, without questions.
type Summary struct {
	ID              string `json:"id"`
	CourseID        string `json:"course_id"`
	DisciplineID    string `json:"discipline_id"`
	Name            string `json:"name"`
	ExamDate        int64  `json:"exam_date"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            Type   `json:"type"`
	QuestionCount   int    `json:"question_count"`
}
