package validation

import (
	"bytes"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// PasswordPolicy describes the complexity a new password must meet.
type PasswordPolicy struct {
	Min              int `yaml:"min"`
	Max              int `yaml:"max"`
	LowerCase        int `yaml:"lower_case"`
	UpperCase        int `yaml:"upper_case"`
	Numeric          int `yaml:"numeric"`
	Symbol           int `yaml:"symbol"`
	RequirementCount int `yaml:"requirement_count"`
}

// DefaultPasswordPolicy requires 8-26 characters with at least one lower-case
// letter, upper-case letter, number and symbol.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Min:              8,
		Max:              26,
		LowerCase:        1,
		UpperCase:        1,
		Numeric:          1,
		Symbol:           1,
		RequirementCount: 4,
	}
}

// LoadPasswordPolicy reads a YAML policy file. Keys left out keep their
// default values; unknown keys are rejected. An empty path returns the default.
func LoadPasswordPolicy(path string) (PasswordPolicy, error) {
	policy := DefaultPasswordPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read password policy: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&policy); err != nil {
		return policy, fmt.Errorf("failed to parse password policy: %w", err)
	}

	if err := policy.validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

func (p PasswordPolicy) validate() error {
	if p.Min < 1 {
		return fmt.Errorf("password policy: min must be at least 1, got %d", p.Min)
	}
	if p.Max < p.Min {
		return fmt.Errorf("password policy: max (%d) is below min (%d)", p.Max, p.Min)
	}
	for name, n := range map[string]int{"lower_case": p.LowerCase, "upper_case": p.UpperCase, "numeric": p.Numeric, "symbol": p.Symbol} {
		if n < 0 {
			return fmt.Errorf("password policy: %s must not be negative", name)
		}
	}
	if p.RequirementCount < 0 || p.RequirementCount > p.enabled() {
		return fmt.Errorf("password policy: requirement_count must be between 0 and %d", p.enabled())
	}
	return nil
}

// enabled counts the character-class requirements with a non-zero minimum.
func (p PasswordPolicy) enabled() int {
	n := 0
	for _, c := range []int{p.LowerCase, p.UpperCase, p.Numeric, p.Symbol} {
		if c > 0 {
			n++
		}
	}
	return n
}

type classCheck struct {
	want    int
	got     int
	message string
}

// Check returns an empty string when value satisfies the policy, or the
// message for the first unmet rule.
func (p PasswordPolicy) Check(label, value string) string {
	quoted := fmt.Sprintf("%q", label)
	if value == "" {
		return quoted + " is required"
	}

	length := utf8.RuneCountInString(value)
	if length < p.Min {
		return fmt.Sprintf("%s should be at least %d characters long", quoted, p.Min)
	}
	if p.Max > 0 && length > p.Max {
		return fmt.Sprintf("%s should not be longer than %d characters", quoted, p.Max)
	}

	var lower, upper, digit, symbol int
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
			digit++
		case !unicode.IsLetter(r):
			symbol++
		}
	}

	checks := []classCheck{
		{p.LowerCase, lower, fmt.Sprintf("%s should contain at least %d lower-cased letter", quoted, p.LowerCase)},
		{p.UpperCase, upper, fmt.Sprintf("%s should contain at least %d upper-cased letter", quoted, p.UpperCase)},
		{p.Numeric, digit, fmt.Sprintf("%s should contain at least %d number", quoted, p.Numeric)},
		{p.Symbol, symbol, fmt.Sprintf("%s should contain at least %d symbol", quoted, p.Symbol)},
	}

	required := p.RequirementCount
	if required == 0 {
		required = p.enabled()
	}

	met := 0
	var firstUnmet string
	for _, c := range checks {
		if c.want <= 0 {
			continue
		}
		if c.got >= c.want {
			met++
		} else if firstUnmet == "" {
			firstUnmet = c.message
		}
	}

	if met >= required {
		return ""
	}
	if required == p.enabled() {
		return firstUnmet
	}
	return fmt.Sprintf("%s must meet at least %d of the complexity requirements", quoted, required)
}
