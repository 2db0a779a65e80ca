package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/scheduling"
	"github.com/mirai-juku/scheduling-api/pkg/config"
)

type seriesFixture struct {
	svc      *SeriesService
	windows  *windowsStub
	sessions *sessionsStub
	series   *seriesStoreStub
	cache    *memoryStore
}

func newSeriesFixture() *seriesFixture {
	windows := newWindowsStub()
	sessions := &sessionsStub{}
	series := newSeriesStoreStub()
	store := newMemoryStore()
	teachers := &teacherDirStub{items: map[string]*models.Teacher{"t1": {ID: "t1", FullName: "Tanaka"}}}
	students := &studentDirStub{items: map[string]*models.Student{"s1": {ID: "s1", FullName: "Sato"}}}
	booths := &boothDirStub{items: map[string]*models.Booth{"b1": {ID: "b1", Name: "A"}}}

	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc := NewSeriesService(windows, sessions, series, teachers, students, booths, cache, nil,
		config.SchedulingConfig{DefaultHorizonMonths: 3, PreviewCacheTTL: time.Minute, CheckAvailability: true}, nil, nil)
	return &seriesFixture{svc: svc, windows: windows, sessions: sessions, series: series, cache: store}
}

// Mondays 2025-01-06 through 2025-01-20.
func mondaysDefinition(startTime, endTime string) dto.SeriesDefinitionRequest {
	end := "2025-01-20"
	return dto.SeriesDefinitionRequest{
		TeacherID:  "t1",
		StudentID:  "s1",
		SubjectID:  "sub1",
		BoothID:    "b1",
		StartTime:  startTime,
		EndTime:    endTime,
		StartDate:  "2025-01-06",
		EndDate:    &end,
		DaysOfWeek: []int{1},
	}
}

func TestSeriesPreviewFlagsOutOfWindowDates(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	resp, err := f.svc.Preview(context.Background(), dto.PreviewSeriesRequest{Definition: mondaysDefinition("13:00", "14:00")})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Summary.TotalDates)
	assert.Equal(t, 3, resp.Summary.FlaggedDates)
	assert.Equal(t, []string{"2025-01-06", "2025-01-13", "2025-01-20"}, resp.Dates)
	require.Contains(t, resp.ConflictsByDate, "2025-01-06")
	assert.Equal(t, scheduling.ConflictTeacherWrongTime, resp.ConflictsByDate["2025-01-06"][0].Type)
}

func TestSeriesPreviewCleanRunCaches(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	req := dto.PreviewSeriesRequest{Definition: mondaysDefinition("10:00", "11:00")}
	resp, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Summary.FlaggedDates)
	assert.Len(t, f.cache.values, 1)

	again, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, resp.Summary, again.Summary)
}

func TestSeriesCreateWithoutActionsFailsOnConflicts(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	resp, err := f.svc.Create(context.Background(), dto.CreateSeriesRequest{Definition: mondaysDefinition("13:00", "14:00")})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Empty(t, resp.SeriesID)
	assert.NotEmpty(t, resp.Conflicts)
	assert.Len(t, resp.ConflictsByDate, 3)
	assert.Empty(t, f.sessions.created)
	assert.Empty(t, f.series.records)
}

func TestSeriesCreateMaterializesResolvedDates(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	alt1, alt2 := "10:00", "11:00"
	resp, err := f.svc.Create(context.Background(), dto.CreateSeriesRequest{
		Definition: mondaysDefinition("13:00", "14:00"),
		Actions: []dto.SessionActionRequest{
			{Date: "2025-01-06", Action: "SKIP"},
			{Date: "2025-01-13", Action: "FORCE_CREATE"},
			{Date: "2025-01-20", Action: "USE_ALTERNATIVE", AlternativeStartTime: &alt1, AlternativeEndTime: &alt2},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SeriesID)
	assert.Equal(t, 2, resp.CreatedCount)
	assert.Equal(t, 1, resp.SkippedCount)

	require.Len(t, f.sessions.created, 2)
	forced, alternative := f.sessions.created[0], f.sessions.created[1]
	assert.Equal(t, "2025-01-13", forced.Date.Format(dto.DateLayout))
	assert.Equal(t, "13:00", forced.StartTime)
	assert.Equal(t, "2025-01-20", alternative.Date.Format(dto.DateLayout))
	assert.Equal(t, "10:00", alternative.StartTime)
	assert.Equal(t, "11:00", alternative.EndTime)
	require.NotNil(t, forced.SeriesID)
	assert.Equal(t, resp.SeriesID, *forced.SeriesID)
}

func TestSeriesCreateIgnoresStaleActions(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})

	// No conflicts, so the leftover action from an earlier preview targets a
	// date the server no longer flags.
	resp, err := f.svc.Create(context.Background(), dto.CreateSeriesRequest{
		Definition: mondaysDefinition("10:00", "11:00"),
		Actions:    []dto.SessionActionRequest{{Date: "2025-01-06", Action: "SKIP"}},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.CreatedCount)
	assert.Equal(t, 0, resp.SkippedCount)
}

func TestSeriesCreateHardConflictSurvivesAvailabilityOverride(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})
	f.sessions.existing = []models.ClassSession{{
		ID:        "other",
		TeacherID: "t9",
		StudentID: "s9",
		BoothID:   "b1",
		Date:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
	}}

	off := false
	resp, err := f.svc.Create(context.Background(), dto.CreateSeriesRequest{
		Definition:        mondaysDefinition("10:00", "11:00"),
		CheckAvailability: &off,
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.Contains(t, resp.ConflictsByDate, "2025-01-06")
	assert.Equal(t, scheduling.ConflictBooth, resp.ConflictsByDate["2025-01-06"][0].Type)
	assert.Empty(t, f.sessions.created)
}

func TestSeriesCreateCancelsSeriesWhenBatchInsertFails(t *testing.T) {
	f := newSeriesFixture()
	f.windows.addRegular("t1", "teacher", "MONDAY", scheduling.TimeRange{StartTime: "09:00", EndTime: "12:00"})
	f.sessions.createBatchErr = assert.AnError

	_, err := f.svc.Create(context.Background(), dto.CreateSeriesRequest{Definition: mondaysDefinition("10:00", "11:00")})
	require.Error(t, err)

	// The committed series row must not survive as active with no sessions.
	require.Len(t, f.series.records, 1)
	for _, record := range f.series.records {
		assert.Equal(t, models.SeriesCancelled, record.Status)
	}
	assert.Empty(t, f.sessions.created)
}

func TestSeriesExtendCancelsTailWhenEndDateMoveFails(t *testing.T) {
	f := newSeriesFixture()
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	f.series.records["sr1"] = &models.LessonSeries{
		ID: "sr1", TeacherID: "t1", StudentID: "s1", SubjectID: "sub1", BoothID: "b1",
		StartTime: "10:00", EndTime: "11:00",
		StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), EndDate: &end,
		DaysOfWeek: types.JSONText("[1]"), Status: models.SeriesActive,
	}
	f.series.updateEndDateErr = assert.AnError

	_, err := f.svc.Extend(context.Background(), "sr1", dto.ExtendSeriesRequest{EndDate: "2025-02-03"})
	require.Error(t, err)

	// The already-written tail gets cancelled so a retried extension cannot
	// duplicate it.
	assert.Equal(t, []string{"sr1"}, f.sessions.cancelledSeries)
}

func TestSeriesExtendMaterializesTailOnly(t *testing.T) {
	f := newSeriesFixture()
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	f.series.records["sr1"] = &models.LessonSeries{
		ID:         "sr1",
		TeacherID:  "t1",
		StudentID:  "s1",
		SubjectID:  "sub1",
		BoothID:    "b1",
		StartTime:  "10:00",
		EndTime:    "11:00",
		StartDate:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
		DaysOfWeek: types.JSONText("[1]"),
		Status:     models.SeriesActive,
	}

	resp, err := f.svc.Extend(context.Background(), "sr1", dto.ExtendSeriesRequest{EndDate: "2025-02-03"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "sr1", resp.SeriesID)
	assert.Equal(t, 2, resp.CreatedCount)
	require.Len(t, f.sessions.created, 2)
	assert.Equal(t, "2025-01-27", f.sessions.created[0].Date.Format(dto.DateLayout))
	assert.Equal(t, "2025-02-03", f.sessions.created[1].Date.Format(dto.DateLayout))

	require.NotNil(t, f.series.records["sr1"].EndDate)
	assert.Equal(t, "2025-02-03", f.series.records["sr1"].EndDate.Format(dto.DateLayout))
}

func TestSeriesExtendRejectsShrinking(t *testing.T) {
	f := newSeriesFixture()
	end := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	f.series.records["sr1"] = &models.LessonSeries{
		ID: "sr1", TeacherID: "t1", StudentID: "s1", SubjectID: "sub1", BoothID: "b1",
		StartTime: "10:00", EndTime: "11:00",
		StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), EndDate: &end,
		DaysOfWeek: types.JSONText("[1]"), Status: models.SeriesActive,
	}

	_, err := f.svc.Extend(context.Background(), "sr1", dto.ExtendSeriesRequest{EndDate: "2025-01-13"})
	require.Error(t, err)
}

func TestSeriesExtendRejectsCancelledSeries(t *testing.T) {
	f := newSeriesFixture()
	f.series.records["sr1"] = &models.LessonSeries{ID: "sr1", Status: models.SeriesCancelled}

	_, err := f.svc.Extend(context.Background(), "sr1", dto.ExtendSeriesRequest{EndDate: "2025-02-03"})
	require.Error(t, err)
}

func TestSeriesCancel(t *testing.T) {
	f := newSeriesFixture()
	f.series.records["sr1"] = &models.LessonSeries{ID: "sr1", Status: models.SeriesActive}

	require.NoError(t, f.svc.Cancel(context.Background(), "sr1"))
	assert.Equal(t, models.SeriesCancelled, f.series.records["sr1"].Status)
	assert.Equal(t, []string{"sr1"}, f.sessions.cancelledSeries)

	err := f.svc.Cancel(context.Background(), "missing")
	require.Error(t, err)
}
