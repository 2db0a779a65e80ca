package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTiers(t *testing.T) {
	mathSenior := SubjectPreference{Family: "math", Level: "senior-high"}
	mathJunior := SubjectPreference{Family: "math", Level: "junior-high"}
	english := SubjectPreference{Family: "english", Level: "senior-high"}

	cases := []struct {
		name    string
		teacher []SubjectPreference
		student []SubjectPreference
		family  string
		want    Tier
	}{
		{"shared subject and level", []SubjectPreference{mathSenior}, []SubjectPreference{mathSenior}, "", TierPerfect},
		{"shared family different level", []SubjectPreference{mathSenior}, []SubjectPreference{mathJunior}, "", TierSubjectOnly},
		{"no overlap at all", []SubjectPreference{mathSenior}, []SubjectPreference{english}, "", TierMismatch},
		{"teacher has no constraints", nil, []SubjectPreference{mathSenior}, "", TierTeacherNoPrefs},
		{"student has no constraints", []SubjectPreference{mathSenior}, nil, "", TierStudentNoPrefs},
		{"neither side has data", nil, nil, "", TierNoPreferences},
		{"family filter turns overlap into no-prefs", []SubjectPreference{mathSenior}, []SubjectPreference{mathSenior}, "english", TierNoPreferences},
		{"family filter keeps exact match", []SubjectPreference{mathSenior, english}, []SubjectPreference{mathSenior}, "math", TierPerfect},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, _ := Classify(tc.teacher, tc.student, tc.family)
			assert.Equal(t, tc.want, tier)
		})
	}
}

func TestClassifyCounts(t *testing.T) {
	teacher := []SubjectPreference{
		{Family: "math", Level: "senior-high"},
		{Family: "physics", Level: "senior-high"},
		{Family: "english", Level: "junior-high"},
	}
	student := []SubjectPreference{
		{Family: "math", Level: "senior-high"},
		{Family: "english", Level: "senior-high"},
	}

	tier, counts := Classify(teacher, student, "")
	assert.Equal(t, TierPerfect, tier)
	assert.Equal(t, 1, counts.Matching)
	assert.Equal(t, 1, counts.PartialMatching)
}

func TestTierPriorityIsTotalOrder(t *testing.T) {
	ordered := []Tier{TierPerfect, TierSubjectOnly, TierTeacherNoPrefs, TierStudentNoPrefs, TierNoPreferences, TierMismatch}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Greater(t, ordered[i].Priority(), ordered[i+1].Priority())
	}
	assert.Equal(t, 5, TierPerfect.Priority())
	assert.Equal(t, 0, TierMismatch.Priority())
}

func TestRankOrdersByTierThenName(t *testing.T) {
	candidates := []Candidate{
		{ID: "c", Name: "Watanabe", Tier: TierMismatch},
		{ID: "a", Name: "suzuki", Tier: TierPerfect},
		{ID: "b", Name: "Abe", Tier: TierPerfect},
		{ID: "d", Name: "Ito", Tier: TierSubjectOnly},
	}

	Rank(candidates)

	assert.Equal(t, []string{"b", "a", "d", "c"}, []string{candidates[0].ID, candidates[1].ID, candidates[2].ID, candidates[3].ID})
}

func TestRankIsDeterministic(t *testing.T) {
	build := func() []Candidate {
		return []Candidate{
			{ID: "2", Name: "Tanaka", Tier: TierPerfect},
			{ID: "1", Name: "Tanaka", Tier: TierPerfect},
			{ID: "3", Name: "Sato", Tier: TierNoPreferences},
		}
	}

	first := build()
	second := build()
	Rank(first)
	Rank(second)
	assert.Equal(t, first, second)
	assert.Equal(t, "1", first[0].ID, "equal tier and name fall back to id order")
}
