package dto

import "github.com/mirai-juku/scheduling-api/internal/scheduling"

// RankQuery selects whose candidates to rank and for which subject family.
// Exactly one of StudentID / TeacherID is set: ranking teachers for a chosen
// student, or students for a chosen teacher.
type RankQuery struct {
	StudentID     string `form:"studentId" json:"studentId"`
	TeacherID     string `form:"teacherId" json:"teacherId"`
	SubjectFamily string `form:"subjectFamily" json:"subjectFamily"`
}

// RankedCandidate is one ranked selection entry.
type RankedCandidate struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Tier     scheduling.Tier        `json:"tier"`
	Priority int                    `json:"priority"`
	Counts   scheduling.MatchCounts `json:"counts"`
}

// RankResponse returns candidates in descending tier order.
type RankResponse struct {
	Role       string            `json:"role"`
	Candidates []RankedCandidate `json:"candidates"`
}
