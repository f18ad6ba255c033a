package person

import (
	"unicode"
	"unicode/utf8"
)

// DefaultDigitPoints is the canonical weight awarded for a digit. Older
// databases were scored with a weight of 1; see Scorer.DigitPoints.
const DefaultDigitPoints = 2

// Scorer assigns an additive strength score to a password. The zero value
// scores with the canonical rule set.
type Scorer struct {
	// DigitPoints overrides the points awarded when the password contains a
	// digit. Zero selects DefaultDigitPoints; 1 reproduces historical scores.
	DigitPoints int
}

// Score evaluates every rule against the full password and sums the
// contributions: lowercase letter 1, uppercase letter 2, digit 2 (or
// DigitPoints), non-alphanumeric character 3, length of at least eight
// characters 5. Deterministic, no side effects, result in [0, 13].
func (s Scorer) Score(password string) int {
	digitPoints := s.DigitPoints
	if digitPoints == 0 {
		digitPoints = DefaultDigitPoints
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		if unicode.IsLower(r) {
			hasLower = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			hasSpecial = true
		}
	}

	score := 0
	if hasLower {
		score++
	}
	if hasUpper {
		score += 2
	}
	if hasDigit {
		score += digitPoints
	}
	if hasSpecial {
		score += 3
	}
	if utf8.RuneCountInString(password) >= 8 {
		score += 5
	}
	return score
}
