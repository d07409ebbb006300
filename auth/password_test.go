package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aluiziolira/smartmarket/auth"
)

func TestPasswordPolicy_Score(t *testing.T) {
	p := auth.DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		want     int
	}{
		{name: "empty", password: "", want: 0},
		{name: "lowercase only", password: "abc", want: 1},
		{name: "long uppercase", password: "ABCDEFGHIJKLMNOP", want: 2},
		{name: "all classes at minimum length", password: "Abcdef1!", want: 5},
		{name: "all classes with length bonus", password: "Abcdefgh1!xy", want: 6},
		{name: "long but missing symbol", password: "Abcdefghijk1", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Score(tt.password))
		})
	}
}

func TestPasswordPolicy_Issues(t *testing.T) {
	p := auth.DefaultPasswordPolicy()

	t.Run("empty password lists every rule in order", func(t *testing.T) {
		assert.Equal(t, []string{
			"at least 8 characters",
			"one uppercase letter",
			"one lowercase letter",
			"one number",
			"one symbol",
		}, p.Issues(""))
	})

	t.Run("strong password has no issues", func(t *testing.T) {
		assert.Empty(t, p.Issues("Abcdef1!"))
	})

	t.Run("disabled rules are not reported", func(t *testing.T) {
		relaxed := p
		relaxed.RequireSymbol = false
		assert.Empty(t, relaxed.Issues("Abcdefg1"))
		assert.Equal(t, []string{"one symbol"}, p.Issues("Abcdefg1"))
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		assert.Equal(t, []string{"at least 8 characters"}, p.Issues("Çã1!bcD"))
		assert.Empty(t, p.Issues("Çã1!bcDé"))
	})
}

func TestPasswordPolicy_ScoreMatchesIssues(t *testing.T) {
	p := auth.DefaultPasswordPolicy()
	samples := []string{
		"", "a", "A", "1", "!", "abcdefgh", "ABCDEFGH", "Abcdefgh", "Abcdefg1",
		"Abcdef1!", "abcdef1!", "ABCDEF1!", "Abcdefgh!!!!", "Abcdefgh1!xy",
		"aaaaaaaaaaaaaaaaaaaa", "P@ssw0rd", "пароль1!Ab",
	}
	for _, pw := range samples {
		score := p.Score(pw)
		assert.GreaterOrEqual(t, score, 0, pw)
		assert.LessOrEqual(t, score, auth.MaxScore, pw)
		assert.Equal(t, len(p.Issues(pw)) == 0, score >= 5, "password %q scored %d", pw, score)
	}
}
