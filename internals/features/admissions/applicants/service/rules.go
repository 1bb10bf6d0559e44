package service

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"admissions_backend/internals/apperr"
)

var (
	emailCheck = validator.New()

	gpaMin = decimal.Zero
	gpaMax = decimal.NewFromInt(5)
)

type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) { f[field] = append(f[field], msg) }

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(f, "invalid applicant data")
}

func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkName(f fieldErrors, field, v string) {
	if n := utf8.RuneCountInString(v); n < 2 || n > 100 {
		f.add(field, "must be between 2 and 100 characters")
	}
}

func checkProgram(f fieldErrors, v string) {
	if n := utf8.RuneCountInString(v); n < 2 || n > 200 {
		f.add("program", "must be between 2 and 200 characters")
	}
}

func checkEmail(f fieldErrors, v string) {
	if v == "" {
		f.add("email", "is required")
		return
	}
	if err := emailCheck.Var(v, "email,max=255"); err != nil {
		f.add("email", "must be a valid email address")
	}
}

// checkGPA: [0,5] with at most two decimals.
func checkGPA(f fieldErrors, g decimal.Decimal) {
	if g.LessThan(gpaMin) || g.GreaterThan(gpaMax) {
		f.add("gpa", "must be between 0.00 and 5.00")
		return
	}
	if !g.Equal(g.Truncate(2)) {
		f.add("gpa", "must have at most 2 decimal places")
	}
}

func checkTestScore(f fieldErrors, t int) {
	if t < 0 || t > 100 {
		f.add("test_score", "must be between 0 and 100")
	}
}
