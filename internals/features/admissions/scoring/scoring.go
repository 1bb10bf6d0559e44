// Package scoring turns an applicant's GPA and test score into a weighted
// admission score and a recommendation tier.
//
//	score = round2( gpa/4.0*40 + testScore/100*60 )
//
// GPA is normalized against 4.0 while applicants may report up to 5.0, so
// scores above 100 are possible. They are reported as computed.
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierAccept Tier = "RECOMMENDED_ACCEPT"
	TierReview Tier = "RECOMMENDED_REVIEW"
	TierReject Tier = "RECOMMENDED_REJECT"
)

var (
	gpaWeight     = decimal.NewFromInt(40)
	testWeight    = decimal.NewFromInt(60)
	gpaScale      = decimal.RequireFromString("4.0")
	testScoreMax  = decimal.NewFromInt(100)
	acceptAtLeast = decimal.NewFromInt(75)
	reviewAtLeast = decimal.NewFromInt(60)
)

type Result struct {
	Score decimal.Decimal
	Tier  Tier
}

// Score is total over GPA [0,5] and test score [0,100]; callers validate
// ranges beforehand.
func Score(gpa decimal.Decimal, testScore int) Result {
	score := gpaPoints(gpa).Add(testPoints(testScore)).Round(2)
	return Result{Score: score, Tier: TierFor(score)}
}

// TierFor buckets a score: >=75 accept, [60,75) review, <60 reject.
func TierFor(score decimal.Decimal) Tier {
	switch {
	case score.GreaterThanOrEqual(acceptAtLeast):
		return TierAccept
	case score.GreaterThanOrEqual(reviewAtLeast):
		return TierReview
	default:
		return TierReject
	}
}

func gpaPoints(gpa decimal.Decimal) decimal.Decimal {
	return gpa.Div(gpaScale).Mul(gpaWeight)
}

func testPoints(testScore int) decimal.Decimal {
	return decimal.NewFromInt(int64(testScore)).Div(testScoreMax).Mul(testWeight)
}

// Hint is the reviewer-facing explanation of a score.
type Hint struct {
	Score     decimal.Decimal
	Tier      Tier
	Note      string
	Reasoning string
}

func Explain(gpa decimal.Decimal, testScore int, program string) Hint {
	r := Score(gpa, testScore)
	return Hint{
		Score:     r.Score,
		Tier:      r.Tier,
		Note:      note(r.Tier, gpa, testScore, program),
		Reasoning: reasoning(gpa, testScore, r.Score),
	}
}

func note(tier Tier, gpa decimal.Decimal, testScore int, program string) string {
	g := gpa.StringFixed(2)
	switch tier {
	case TierAccept:
		return fmt.Sprintf(
			"Recommend acceptance. A GPA of %s and a test score of %d show strong academic performance "+
				"and a good fit for the %s program.", g, testScore, program)
	case TierReview:
		return fmt.Sprintf(
			"Recommend further review. A GPA of %s and a test score of %d are solid; weigh essays, "+
				"interviews and activities before deciding on the %s program.", g, testScore, program)
	default:
		return fmt.Sprintf(
			"Below the recommendation threshold (GPA %s, test score %d). Consider a holistic review, "+
				"conditional admission or preparatory courses for the %s program.", g, testScore, program)
	}
}

func reasoning(gpa decimal.Decimal, testScore int, total decimal.Decimal) string {
	return fmt.Sprintf(
		"GPA %s/4.0 contributes %s points (40%% weight); test score %d/100 contributes %s points (60%% weight); total %s/100.",
		gpa.StringFixed(2),
		gpaPoints(gpa).Round(2).StringFixed(2),
		testScore,
		testPoints(testScore).Round(2).StringFixed(2),
		total.StringFixed(2),
	)
}
