package exam

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/opencampus/admissions/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type QuestionInput struct {
	Text          string   `json:"text" validate:"required"`
	Type          string   `json:"type" validate:"required,oneof=multiple_choice true_false essay"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Score         float64  `json:"score" validate:"required,gt=0"`
}

type ScheduleInput struct {
	CourseID           string          `json:"course_id" validate:"required"`
	DisciplineID       string          `json:"discipline_id" validate:"required"`
	Name               string          `json:"name" validate:"required"`
	ExamDate           int64           `json:"exam_date" validate:"required,gt=0"`
	DurationMinutes    int             `json:"duration_minutes" validate:"required,gt=0"`
	Type               string          `json:"type" validate:"required,oneof=objective discursive mixed"`
	MaxScore           float64         `json:"max_score" validate:"required,gt=0"`
	SecondCallEligible bool            `json:"second_call_eligible"`
	SecondCallDate     int64           `json:"second_call_date,omitempty"`
	PublicationDate    int64           `json:"publication_date,omitempty"`
	Questions          []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// Validate runs the tag checks plus the invariants tags cannot express.
func (in ScheduleInput) Validate() error {
	flds := tagErrors(validate.Struct(in))

	if in.SecondCallEligible {
		if in.SecondCallDate == 0 {
			flds = append(flds, apperr.FieldError{Field: "second_call_date", Error: "required when second_call_eligible"})
		} else if in.SecondCallDate <= in.ExamDate {
			flds = append(flds, apperr.FieldError{Field: "second_call_date", Error: "must be strictly after exam_date"})
		}
	}
	for i, q := range in.Questions {
		prefix := fmt.Sprintf("questions[%d].", i)
		switch QuestionType(q.Type) {
		case QuestionMultipleChoice:
			if len(q.Options) == 0 {
				flds = append(flds, apperr.FieldError{Field: prefix + "options", Error: "required for multiple_choice"})
			} else if !containsFold(q.Options, q.CorrectAnswer) {
				flds = append(flds, apperr.FieldError{Field: prefix + "correct_answer", Error: "must be one of options"})
			}
		case QuestionTrueFalse:
			if q.CorrectAnswer == "" {
				flds = append(flds, apperr.FieldError{Field: prefix + "correct_answer", Error: "required for true_false"})
			}
		case QuestionEssay:
			// correct_answer stays empty; grading is manual later
		}
	}
	if len(flds) > 0 {
		return apperr.Validation("invalid exam", flds...)
	}
	return nil
}

// ToExam materializes the input with fresh ids. Call Validate first.
func (in ScheduleInput) ToExam(now time.Time) Exam {
	e := Exam{
		ID:                 uuid.NewString(),
		CourseID:           in.CourseID,
		DisciplineID:       in.DisciplineID,
		Name:               in.Name,
		ExamDate:           in.ExamDate,
		DurationMinutes:    in.DurationMinutes,
		Type:               Type(in.Type),
		MaxScore:           in.MaxScore,
		SecondCallEligible: in.SecondCallEligible,
		SecondCallDate:     in.SecondCallDate,
		PublicationDate:    in.PublicationDate,
		CreatedAt:          now.Unix(),
	}
	for i, q := range in.Questions {
		e.Questions = append(e.Questions, Question{
			ID:            uuid.NewString(),
			ExamID:        e.ID,
			Text:          q.Text,
			Type:          QuestionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Score:         q.Score,
			Position:      i,
		})
	}
	return e
}

func tagErrors(err error) []apperr.FieldError {
	if err == nil {
		return nil
	}
	verr, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperr.FieldError{{Field: "", Error: err.Error()}}
	}
	out := make([]apperr.FieldError, 0, len(verr))
	for _, fe := range verr {
		out = append(out, apperr.FieldError{
			Field: strings.ToLower(fe.Field()),
			Error: "failed " + fe.Tag() + " check",
		})
	}
	return out
}

func containsFold(opts []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o), v) {
			return true
		}
	}
	return false
}
