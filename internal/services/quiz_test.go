package services

import "testing"

func TestScorePercent(t *testing.T) {
	cases := []struct {
		correct, total int
		want           int
	}{
		{6, 10, 60},
		{1, 3, 33},
		{2, 3, 67},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := scorePercent(c.correct, c.total); got != c.want {
			t.Fatalf("scorePercent(%d, %d) = %d, want %d", c.correct, c.total, got, c.want)
		}
	}
}
