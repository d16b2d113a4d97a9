package arena

import (
	"math"
	"strings"

	"github.com/devfork/arena/internal/domain/model"
)

const (
	baseScore        = 100.0
	maxTimeBonus     = 50.0
	timeBonusWindow  = 60.0 // seconds; no bonus at or beyond this
	attemptPenalty   = 10.0 // per attempt after the first
	partialCreditCap = 30.0
)

// Score computes the deterministic score for one submission.
//
// A run that did not pass every test earns partial credit only:
// floor(testsPassed/totalTests * 30). A fully passing run earns
// floor((100 + timeBonus - attemptPenalty) * difficultyMultiplier), where the
// time bonus decays linearly from 50 at 0s to 0 at 60s and each attempt after
// the first costs 10 points. The result is never negative.
func Score(testsPassed, totalTests int, executionTime float64, attempts int, difficulty model.ChallengeDifficulty) int {
	if totalTests == 0 {
		return 0
	}
	if testsPassed < totalTests {
		return int(math.Floor(float64(testsPassed) / float64(totalTests) * partialCreditCap))
	}

	timeBonus := maxTimeBonus - (executionTime/timeBonusWindow)*maxTimeBonus
	if timeBonus < 0 {
		timeBonus = 0
	}

	penalty := float64(attempts-1) * attemptPenalty
	if penalty < 0 {
		penalty = 0
	}

	score := int(math.Floor((baseScore + timeBonus - penalty) * difficultyMultiplier(difficulty)))
	if score < 0 {
		return 0
	}
	return score
}

func difficultyMultiplier(difficulty model.ChallengeDifficulty) float64 {
	switch model.ChallengeDifficulty(strings.ToLower(string(difficulty))) {
	case model.DifficultyEasy:
		return 1.0
	case model.DifficultyMedium:
		return 1.5
	case model.DifficultyHard:
		return 2.0
	default:
		return 1.0
	}
}
