package retrieval

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func match(content string, page int) Match {
	m := Match{ChunkID: uuid.New(), Content: content}
	if page > 0 {
		m.Page = &page
	}
	return m
}

func TestBuildContextNumbersSources(t *testing.T) {
	got := BuildContext([]Match{
		match("alpha content", 2),
		match("beta content", 0),
	}, 0)

	if !strings.Contains(got, "[Source 1, page 2]") {
		t.Fatalf("missing first header: %q", got)
	}
	if !strings.Contains(got, "[Source 2]") {
		t.Fatalf("missing unpaged header: %q", got)
	}
	if strings.Index(got, "alpha content") > strings.Index(got, "beta content") {
		t.Fatal("source order not preserved")
	}
}

func TestBuildContextRespectsBudget(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := BuildContext([]Match{
		match(long, 0),
		match("should be dropped", 0),
	}, 220)

	if strings.Contains(got, "should be dropped") {
		t.Fatal("budget not enforced")
	}
	if !strings.Contains(got, long) {
		t.Fatal("first source lost")
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil, 0); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}
