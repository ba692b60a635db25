package exam

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opencampus/admissions/internal/apperr"
)

func validInput() ScheduleInput {
	return ScheduleInput{
		CourseID:        "3",
		DisciplineID:    "anatomy",
		Name:            "Anatomy Midterm",
		ExamDate:        time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC).Unix(),
		DurationMinutes: 120,
		Type:            "mixed",
		MaxScore:        20,
		Questions: []QuestionInput{
			{Text: "Largest bone?", Type: "multiple_choice", Options: []string{"Femur", "Tibia"}, CorrectAnswer: "Femur", Score: 10},
			{Text: "The heart has four chambers.", Type: "true_false", CorrectAnswer: "true", Score: 5},
			{Text: "Describe the circulatory system.", Type: "essay", Score: 5},
		},
	}
}

func fieldErrors(t *testing.T, err error) []apperr.FieldError {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *apperr.Error, got %v", err)
	}
	if ae.Kind != apperr.KindValidation {
		t.Fatalf("want validation kind, got %s", ae.Kind)
	}
	return ae.Fields
}

func hasField(flds []apperr.FieldError, name string) bool {
	for _, f := range flds {
		if f.Field == name {
			return true
		}
	}
	return false
}

func TestScheduleInputValid(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestScheduleInputTagChecks(t *testing.T) {
	in := validInput()
	in.Name = ""
	in.DurationMinutes = 0
	in.Type = "oral"
	flds := fieldErrors(t, in.Validate())
	for _, want := range []string{"name", "durationminutes", "type"} {
		if !hasField(flds, want) {
			t.Errorf("missing field error for %q in %v", want, flds)
		}
	}
}

func TestScheduleInputRequiresQuestions(t *testing.T) {
	in := validInput()
	in.Questions = nil
	flds := fieldErrors(t, in.Validate())
	if !hasField(flds, "questions") {
		t.Errorf("missing field error for questions in %v", flds)
	}
}

func TestSecondCallDateInvariant(t *testing.T) {
	in := validInput()
	in.SecondCallEligible = true
	flds := fieldErrors(t, in.Validate())
	if !hasField(flds, "second_call_date") {
		t.Errorf("missing second_call_date when eligible and unset: %v", flds)
	}

	in.SecondCallDate = in.ExamDate // equal is not "after"
	flds = fieldErrors(t, in.Validate())
	if !hasField(flds, "second_call_date") {
		t.Errorf("equal second_call_date accepted: %v", flds)
	}

	in.SecondCallDate = in.ExamDate + 1
	if err := in.Validate(); err != nil {
		t.Errorf("second_call_date one second after exam_date rejected: %v", err)
	}
}

func TestMultipleChoiceKeyMustBeAnOption(t *testing.T) {
	in := validInput()
	in.Questions[0].CorrectAnswer = "Skull"
	flds := fieldErrors(t, in.Validate())
	if !hasField(flds, "questions[0].correct_answer") {
		t.Errorf("off-option key accepted: %v", flds)
	}

	// Option matching ignores case and surrounding whitespace.
	in.Questions[0].CorrectAnswer = "  fEmUr "
	if err := in.Validate(); err != nil {
		t.Errorf("case-insensitive key rejected: %v", err)
	}

	in.Questions[0].Options = nil
	flds = fieldErrors(t, in.Validate())
	if !hasField(flds, "questions[0].options") {
		t.Errorf("multiple_choice without options accepted: %v", flds)
	}
}

func TestTrueFalseRequiresKey(t *testing.T) {
	in := validInput()
	in.Questions[1].CorrectAnswer = ""
	flds := fieldErrors(t, in.Validate())
	if !hasField(flds, "questions[1].correct_answer") {
		t.Errorf("true_false without key accepted: %v", flds)
	}
}

func TestToExamAssignsIDsAndPositions(t *testing.T) {
	in := validInput()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	e := in.ToExam(now)
	if e.ID == "" {
		t.Fatal("exam id not assigned")
	}
	if e.CreatedAt != now.Unix() {
		t.Errorf("created_at = %d", e.CreatedAt)
	}
	seen := map[string]bool{}
	for i, q := range e.Questions {
		if q.ID == "" || seen[q.ID] {
			t.Errorf("question %d: bad id %q", i, q.ID)
		}
		seen[q.ID] = true
		if q.ExamID != e.ID {
			t.Errorf("question %d: exam_id = %q", i, q.ExamID)
		}
		if q.Position != i {
			t.Errorf("question %d: position = %d", i, q.Position)
		}
	}
	if got := e.RawMax(); got != 20 {
		t.Errorf("RawMax = %v, want 20", got)
	}
}

func TestTagErrorFieldsAreLowercase(t *testing.T) {
	in := validInput()
	in.CourseID = ""
	for _, f := range fieldErrors(t, in.Validate()) {
		if f.Field != strings.ToLower(f.Field) {
			t.Errorf("field %q not lowercased", f.Field)
		}
	}
}
