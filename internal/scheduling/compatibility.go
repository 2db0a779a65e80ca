package scheduling

import (
	"sort"
	"strings"
)

// Tier is the discrete compatibility classification for a teacher/student
// pair, ordered by descending priority.
type Tier string

const (
	TierPerfect        Tier = "perfect"
	TierSubjectOnly    Tier = "subject-only"
	TierTeacherNoPrefs Tier = "teacher-no-prefs"
	TierStudentNoPrefs Tier = "student-no-prefs"
	TierNoPreferences  Tier = "no-preferences"
	TierMismatch       Tier = "mismatch"
)

var tierPriority = map[Tier]int{
	TierPerfect:        5,
	TierSubjectOnly:    4,
	TierTeacherNoPrefs: 3,
	TierStudentNoPrefs: 2,
	TierNoPreferences:  1,
	TierMismatch:       0,
}

// Priority returns the sortable rank of the tier, 5 (perfect) down to
// 0 (mismatch).
func (t Tier) Priority() int {
	return tierPriority[t]
}

// SubjectPreference is one declared teachable/learnable subject: a subject
// family (e.g. math) at a specific level (e.g. senior-high).
type SubjectPreference struct {
	Family string
	Level  string
}

// MatchCounts breaks down the preference overlap behind a classification.
type MatchCounts struct {
	Matching        int `json:"matchingSubjectsCount"`
	PartialMatching int `json:"partialMatchingSubjectsCount"`
}

// Classify computes the compatibility tier for a teacher/student preference
// pair. subjectFamily narrows both sides to one family; pass "" to rank
// whole people across every subject.
func Classify(teacherPrefs, studentPrefs []SubjectPreference, subjectFamily string) (Tier, MatchCounts) {
	teacherPrefs = filterFamily(teacherPrefs, subjectFamily)
	studentPrefs = filterFamily(studentPrefs, subjectFamily)

	counts := overlap(teacherPrefs, studentPrefs)

	switch {
	case len(teacherPrefs) > 0 && len(studentPrefs) > 0:
		if counts.Matching > 0 {
			return TierPerfect, counts
		}
		if counts.PartialMatching > 0 {
			return TierSubjectOnly, counts
		}
		return TierMismatch, counts
	case len(teacherPrefs) == 0 && len(studentPrefs) > 0:
		return TierTeacherNoPrefs, counts
	case len(teacherPrefs) > 0 && len(studentPrefs) == 0:
		return TierStudentNoPrefs, counts
	default:
		return TierNoPreferences, counts
	}
}

// Candidate is one ranked participant in a selection list.
type Candidate struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Tier   Tier        `json:"tier"`
	Counts MatchCounts `json:"counts"`
}

// Rank orders candidates by descending tier priority, then by
// case-insensitive name. The sort is stable so identical inputs always
// produce identical orderings.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Tier.Priority(), candidates[j].Tier.Priority()
		if pi != pj {
			return pi > pj
		}
		ni := strings.ToLower(candidates[i].Name)
		nj := strings.ToLower(candidates[j].Name)
		if ni != nj {
			return ni < nj
		}
		return candidates[i].ID < candidates[j].ID
	})
}

func filterFamily(prefs []SubjectPreference, family string) []SubjectPreference {
	if family == "" {
		return prefs
	}
	var out []SubjectPreference
	for _, p := range prefs {
		if strings.EqualFold(p.Family, family) {
			out = append(out, p)
		}
	}
	return out
}

func overlap(teacherPrefs, studentPrefs []SubjectPreference) MatchCounts {
	var counts MatchCounts
	for _, tp := range teacherPrefs {
		exact := false
		partial := false
		for _, sp := range studentPrefs {
			if !strings.EqualFold(tp.Family, sp.Family) {
				continue
			}
			if strings.EqualFold(tp.Level, sp.Level) {
				exact = true
			} else {
				partial = true
			}
		}
		if exact {
			counts.Matching++
		} else if partial {
			counts.PartialMatching++
		}
	}
	return counts
}
