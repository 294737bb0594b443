package services

import (
	"strings"
	"testing"
)

func validQuizPayload(count int) map[string]any {
	questions := make([]any, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, map[string]any{
			"prompt":      "What is the answer?",
			"explanation": "Because the material says so.",
			"options": []any{
				map[string]any{"label": "A", "text": "wrong", "correct": false},
				map[string]any{"label": "B", "text": "right", "correct": true},
				map[string]any{"label": "C", "text": "wrong", "correct": false},
				map[string]any{"label": "D", "text": "wrong", "correct": false},
			},
		})
	}
	return map[string]any{"questions": questions}
}

func TestParseGeneratedQuizValid(t *testing.T) {
	parsed, err := parseGeneratedQuiz(validQuizPayload(5), 5)
	if err != nil {
		t.Fatalf("parseGeneratedQuiz: %v", err)
	}
	if len(parsed.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(parsed.Questions))
	}
	for i, q := range parsed.Questions {
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			t.Fatalf("question %d: %d correct options", i, correct)
		}
	}
}

func TestParseGeneratedQuizWrongCount(t *testing.T) {
	if _, err := parseGeneratedQuiz(validQuizPayload(4), 5); err == nil {
		t.Fatal("expected count mismatch rejected")
	}
}

func TestParseGeneratedQuizTwoCorrect(t *testing.T) {
	payload := validQuizPayload(1)
	q := payload["questions"].([]any)[0].(map[string]any)
	opts := q["options"].([]any)
	opts[0].(map[string]any)["correct"] = true

	_, err := parseGeneratedQuiz(payload, 1)
	if err == nil {
		t.Fatal("expected two-correct payload rejected")
	}
	if !strings.Contains(err.Error(), "correct") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseGeneratedQuizNoCorrect(t *testing.T) {
	payload := validQuizPayload(1)
	q := payload["questions"].([]any)[0].(map[string]any)
	opts := q["options"].([]any)
	opts[1].(map[string]any)["correct"] = false

	if _, err := parseGeneratedQuiz(payload, 1); err == nil {
		t.Fatal("expected zero-correct payload rejected")
	}
}

func TestParseGeneratedQuizMissingLabel(t *testing.T) {
	payload := validQuizPayload(1)
	q := payload["questions"].([]any)[0].(map[string]any)
	opts := q["options"].([]any)
	opts[3].(map[string]any)["label"] = "A"

	if _, err := parseGeneratedQuiz(payload, 1); err == nil {
		t.Fatal("expected duplicate label rejected")
	}
}

func TestParseGeneratedQuizThreeOptions(t *testing.T) {
	payload := validQuizPayload(1)
	q := payload["questions"].([]any)[0].(map[string]any)
	q["options"] = q["options"].([]any)[:3]

	if _, err := parseGeneratedQuiz(payload, 1); err == nil {
		t.Fatal("expected three-option question rejected")
	}
}

func TestParseGeneratedQuizNormalizesLabels(t *testing.T) {
	payload := validQuizPayload(1)
	q := payload["questions"].([]any)[0].(map[string]any)
	opts := q["options"].([]any)
	opts[0].(map[string]any)["label"] = " a "

	parsed, err := parseGeneratedQuiz(payload, 1)
	if err != nil {
		t.Fatalf("parseGeneratedQuiz: %v", err)
	}
	if parsed.Questions[0].Options[0].Label != "A" {
		t.Fatalf("label not normalized: %q", parsed.Questions[0].Options[0].Label)
	}
}
