package model

import "testing"

func TestGradeFromScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Grade
	}{
		{100, GradeA},
		{90, GradeA},
		{89, GradeB},
		{80, GradeB},
		{79, GradeC},
		{70, GradeC},
		{69, GradeD},
		{60, GradeD},
		{59, GradeE},
		{50, GradeE},
		{49, GradeF},
		{0, GradeF},
	}

	for _, tt := range tests {
		if got := GradeFromScore(tt.score); got != tt.want {
			t.Errorf("GradeFromScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

// TestGradeTotalAndMonotonic verifies that every score 0-100 maps to a
// grade and that a higher score never yields a worse grade.
func TestGradeTotalAndMonotonic(t *testing.T) {
	t.Parallel()

	rank := map[Grade]int{
		GradeF: 0, GradeE: 1, GradeD: 2, GradeC: 3, GradeB: 4, GradeA: 5,
	}

	prev := GradeFromScore(0)
	if _, ok := rank[prev]; !ok {
		t.Fatalf("GradeFromScore(0) returned unknown grade %q", prev)
	}

	for score := 1; score <= 100; score++ {
		g := GradeFromScore(score)
		if _, ok := rank[g]; !ok {
			t.Fatalf("GradeFromScore(%d) returned unknown grade %q", score, g)
		}
		if rank[g] < rank[prev] {
			t.Errorf("grade inversion at score %d: %s after %s", score, g, prev)
		}
		prev = g
	}
}
