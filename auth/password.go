package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/aluiziolira/smartmarket/config"
)

// MaxScore is the highest value Score can return.
const MaxScore = 6

// PasswordPolicy lists the rules a new password must satisfy.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireNumber bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires eight characters and every character class.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
		RequireSymbol: true,
	}
}

// PolicyFromConfig reads the password rules out of cfg.
func PolicyFromConfig(cfg *config.Config) PasswordPolicy {
	return PasswordPolicy{
		MinLength:     cfg.PasswordMinLength,
		RequireUpper:  cfg.PasswordUpper,
		RequireLower:  cfg.PasswordLower,
		RequireNumber: cfg.PasswordNumber,
		RequireSymbol: cfg.PasswordSymbol,
	}
}

type passwordTraits struct {
	length int
	upper  bool
	lower  bool
	number bool
	symbol bool
}

func inspect(password string) passwordTraits {
	t := passwordTraits{length: utf8.RuneCountInString(password)}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			t.upper = true
		case unicode.IsLower(r):
			t.lower = true
		case unicode.IsDigit(r):
			t.number = true
		case !unicode.IsLetter(r):
			t.symbol = true
		}
	}
	return t
}

// Issues returns one message per unmet rule, in the order length, upper, lower, number, symbol.
func (p PasswordPolicy) Issues(password string) []string {
	t := inspect(password)
	issues := []string{}
	if t.length < p.MinLength {
		issues = append(issues, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.RequireUpper && !t.upper {
		issues = append(issues, "one uppercase letter")
	}
	if p.RequireLower && !t.lower {
		issues = append(issues, "one lowercase letter")
	}
	if p.RequireNumber && !t.number {
		issues = append(issues, "one number")
	}
	if p.RequireSymbol && !t.symbol {
		issues = append(issues, "one symbol")
	}
	return issues
}

// Score rates password strength from 0 to MaxScore: a point per satisfied
// rule, plus a length bonus once the password has no outstanding issues.
func (p PasswordPolicy) Score(password string) int {
	t := inspect(password)
	score := 0
	for _, ok := range []bool{t.length >= p.MinLength, t.upper, t.lower, t.number, t.symbol} {
		if ok {
			score++
		}
	}
	if t.length >= p.MinLength+4 && len(p.Issues(password)) == 0 {
		score++
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score
}
