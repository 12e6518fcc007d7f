package score_test

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/uatag/internal/score"
	"github.com/coregx/uatag/internal/validate"
)

func TestScorePerfectRecordIsGradeA(t *testing.T) {
	rec := &validate.Record{
		Summary: validate.Summary{PassedRules: 30, FailedRules: 0},
	}

	report := score.Score(rec, nil)

	assert.Equal(t, 100, report.Score)
	assert.Equal(t, "A", report.Grade)
}

func TestScoreMixedFailuresIsGradeF(t *testing.T) {
	rec := &validate.Record{
		Summary: validate.Summary{PassedRules: 20, FailedRules: 10},
		Failures: []validate.Failure{
			{Clause: "7.1", TestNumber: 1, Description: "missing structure tag"},
			{Clause: "7.5", TestNumber: 2, Description: "link missing contents"},
			{Clause: "7.5", TestNumber: 3, Description: "link missing contents"},
		},
	}

	report := score.Score(rec, nil)

	require.Equal(t, 51, report.Score)
	assert.Equal(t, "F", report.Grade)
}

func TestScoreClampingIsAlwaysInRangeAndGradeMonotonic(t *testing.T) {
	f := func(passed, failed uint8, criticalCount uint8) bool {
		failures := make([]validate.Failure, 0, criticalCount)
		for i := 0; i < int(criticalCount)%40; i++ {
			failures = append(failures, validate.Failure{Clause: "7.1", TestNumber: i})
		}
		rec := &validate.Record{
			Summary:  validate.Summary{PassedRules: int(passed), FailedRules: int(failed)},
			Failures: failures,
		}
		report := score.Score(rec, nil)
		if report.Score < 0 || report.Score > 100 {
			return false
		}
		return gradeRank(report.Grade) == expectedRank(report.Score)
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

func gradeRank(grade string) int {
	switch grade {
	case "A":
		return 4
	case "B":
		return 3
	case "C":
		return 2
	case "D":
		return 1
	default:
		return 0
	}
}

func expectedRank(score int) int {
	switch {
	case score >= 90:
		return 4
	case score >= 80:
		return 3
	case score >= 70:
		return 2
	case score >= 60:
		return 1
	default:
		return 0
	}
}

func TestCategoryScoresStartAtOneHundredAndDropOnFailure(t *testing.T) {
	rec := &validate.Record{
		Summary: validate.Summary{PassedRules: 1, FailedRules: 1},
		Failures: []validate.Failure{
			{Clause: "7.4", Description: "figure missing alt text"},
		},
	}

	report := score.Score(rec, nil)

	assert.Less(t, report.CategoryScores[score.CategoryFigures], 100)
	assert.Equal(t, 100, report.CategoryScores[score.CategoryFonts])
}
