package arena

import (
	"testing"

	"github.com/devfork/arena/internal/domain/model"
)

func TestScoreFullPass(t *testing.T) {
	tests := []struct {
		name          string
		executionTime float64
		attempts      int
		difficulty    model.ChallengeDifficulty
		want          int
	}{
		{"medium 30s first attempt", 30, 1, model.DifficultyMedium, 187},
		{"easy instant first attempt", 0, 1, model.DifficultyEasy, 150},
		{"easy at bonus window edge", 60, 1, model.DifficultyEasy, 100},
		{"easy beyond bonus window", 90, 1, model.DifficultyEasy, 100},
		{"hard doubles the base", 60, 1, model.DifficultyHard, 200},
		{"second attempt costs ten", 60, 2, model.DifficultyEasy, 90},
		{"uppercase difficulty accepted", 60, 1, model.ChallengeDifficulty("HARD"), 200},
		{"unknown difficulty defaults to 1x", 60, 1, model.ChallengeDifficulty("nightmare"), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(3, 3, tt.executionTime, tt.attempts, tt.difficulty)
			if got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScorePartialCredit(t *testing.T) {
	if got := Score(2, 5, 1, 1, model.DifficultyHard); got != 12 {
		t.Errorf("2/5 passed: Score = %d, want 12", got)
	}
	if got := Score(3, 4, 1, 1, model.DifficultyEasy); got != 22 {
		t.Errorf("3/4 passed: Score = %d, want 22", got)
	}
	if got := Score(0, 5, 1, 1, model.DifficultyMedium); got != 0 {
		t.Errorf("0/5 passed: Score = %d, want 0", got)
	}
}

func TestScorePartialCreditIgnoresTimeAndAttempts(t *testing.T) {
	// Partial credit depends only on the pass ratio.
	a := Score(2, 5, 0.5, 1, model.DifficultyEasy)
	b := Score(2, 5, 500, 9, model.DifficultyHard)
	if a != b {
		t.Errorf("partial credit varied with time/attempts/difficulty: %d vs %d", a, b)
	}
}

func TestScoreZeroTests(t *testing.T) {
	if got := Score(0, 0, 1, 1, model.DifficultyEasy); got != 0 {
		t.Errorf("Score with zero tests = %d, want 0", got)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	if got := Score(3, 3, 300, 50, model.DifficultyEasy); got != 0 {
		t.Errorf("Score = %d, want 0 when penalties exceed base", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	first := Score(3, 3, 12.345, 2, model.DifficultyMedium)
	for i := 0; i < 10; i++ {
		if got := Score(3, 3, 12.345, 2, model.DifficultyMedium); got != first {
			t.Fatalf("Score not deterministic: %d vs %d", got, first)
		}
	}
}
