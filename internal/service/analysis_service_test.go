package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/pkg/config"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type analysisEntryRepoStub struct {
	entries []models.TimetableEntry
}

func (s analysisEntryRepoStub) ListByTimetable(_ context.Context, timetableID string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.TimetableID == timetableID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s analysisEntryRepoStub) ListByLecturer(_ context.Context, lecturerID, timetableID string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, entry := range s.entries {
		if entry.LecturerID != lecturerID {
			continue
		}
		if timetableID != "" && entry.TimetableID != timetableID {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func newAnalysisServiceFixture(entries []models.TimetableEntry) *AnalysisService {
	return NewAnalysisService(
		analysisEntryRepoStub{entries: entries},
		roomReaderStub{rooms: map[string]*models.Room{
			"room-1": {ID: "room-1", Capacity: 40},
			"room-2": {ID: "room-2", Capacity: 100},
		}},
		lecturerReaderStub{lecturers: map[string]*models.Lecturer{
			"lect-1": {ID: "lect-1", Active: true},
			"lect-2": {ID: "lect-2", Active: true},
		}},
		timetableReaderStub{timetables: map[string]*models.Timetable{
			"tt-1": {ID: "tt-1", Status: models.TimetableStatusDraft},
		}},
		nil,
		config.SchedulingConfig{WorkloadThresholdMinutes: 1200},
		nil,
	)
}

func weeklyEntry(id, lecturerID, roomID, courseID, day string, start, end int) models.TimetableEntry {
	return models.TimetableEntry{
		ID:          id,
		TimetableID: "tt-1",
		CourseID:    courseID,
		RoomID:      roomID,
		LecturerID:  lecturerID,
		DayOfWeek:   day,
		StartMinute: start,
		EndMinute:   end,
	}
}

func TestAnalysisServiceComputeWorkloadOverload(t *testing.T) {
	// Seven three-hour sessions: 1260 minutes, just over the 1200 default.
	var entries []models.TimetableEntry
	days := []string{"MONDAY", "MONDAY", "TUESDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}
	for i, day := range days {
		start := 480 + (i%2)*240
		entries = append(entries, weeklyEntry("e"+string(rune('1'+i)), "lect-1", "room-1", "course-1", day, start, start+180))
	}
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.ComputeWorkload(context.Background(), "lect-1", "tt-1", 0)
	require.NoError(t, err)

	assert.Equal(t, 1260, report.TotalMinutes)
	assert.Equal(t, 21.00, report.TotalHours)
	assert.Equal(t, 1200, report.ThresholdMinutes)
	assert.True(t, report.Overload)
	assert.Equal(t, 7, report.EntryCount)
}

func TestAnalysisServiceComputeWorkloadUnderThreshold(t *testing.T) {
	entries := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
		weeklyEntry("e2", "lect-1", "room-1", "course-1", "WEDNESDAY", 540, 630),
	}
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.ComputeWorkload(context.Background(), "lect-1", "", 0)
	require.NoError(t, err)

	assert.Equal(t, 210, report.TotalMinutes)
	assert.Equal(t, 3.5, report.TotalHours)
	assert.False(t, report.Overload)
}

func TestAnalysisServiceComputeWorkloadExactThresholdIsNotOverload(t *testing.T) {
	var entries []models.TimetableEntry
	for i := 0; i < 5; i++ {
		entries = append(entries, weeklyEntry("e"+string(rune('1'+i)), "lect-1", "room-1", "course-1", models.TeachingDays[i], 480, 720))
	}
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.ComputeWorkload(context.Background(), "lect-1", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1200, report.TotalMinutes)
	assert.False(t, report.Overload, "overload requires strictly exceeding the threshold")
}

func TestAnalysisServiceComputeWorkloadUnknownLecturer(t *testing.T) {
	svc := newAnalysisServiceFixture(nil)

	_, err := svc.ComputeWorkload(context.Background(), "lect-missing", "", 0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrReferenceNotFound.Code, appErr.Code)
}

func TestAnalysisServiceAnalyzeTimetableFindsConflicts(t *testing.T) {
	entries := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
		weeklyEntry("e2", "lect-1", "room-2", "course-2", "MONDAY", 600, 720),
		weeklyEntry("e3", "lect-2", "room-1", "course-3", "MONDAY", 600, 720),
		weeklyEntry("e4", "lect-2", "room-2", "course-4", "TUESDAY", 540, 660),
	}
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalEntries)
	require.Len(t, report.LecturerConflicts, 1)
	assert.Equal(t, "e1", report.LecturerConflicts[0].First.ID)
	assert.Equal(t, "e2", report.LecturerConflicts[0].Second.ID)
	require.Len(t, report.RoomConflicts, 1)
	assert.Equal(t, "e1", report.RoomConflicts[0].First.ID)
	assert.Equal(t, "e3", report.RoomConflicts[0].Second.ID)
}

func TestAnalysisServiceAnalyzeIsIdempotent(t *testing.T) {
	entries := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
		weeklyEntry("e2", "lect-1", "room-2", "course-2", "MONDAY", 600, 720),
	}
	svc := newAnalysisServiceFixture(entries)

	first, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{})
	require.NoError(t, err)
	second, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalysisServiceCapacityChecksOptimisticOnUnknown(t *testing.T) {
	entries := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
		weeklyEntry("e2", "lect-2", "room-1", "course-2", "TUESDAY", 540, 660),
	}
	svc := newAnalysisServiceFixture(entries)

	// course-1 has 80 expected students in a 40-seat room; course-2 unknown.
	report, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{
		ExpectedStudents: map[string]int{"course-1": 80},
	})
	require.NoError(t, err)

	require.Len(t, report.CapacityIssues, 1)
	assert.Equal(t, "e1", report.CapacityIssues[0].EntryID)
	assert.Equal(t, 40, report.CapacityIssues[0].RoomCapacity)
	assert.Equal(t, 80, report.CapacityIssues[0].ExpectedStudents)
}

func TestAnalysisServiceCapacityReportsUnknownOnRequest(t *testing.T) {
	entries := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
	}
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{
		ReportUnknownCapacity: true,
	})
	require.NoError(t, err)

	require.Len(t, report.CapacityIssues, 1)
	assert.True(t, report.CapacityIssues[0].Unknown)
}

func TestAnalysisServiceWorkloadWarnings(t *testing.T) {
	var entries []models.TimetableEntry
	for i, day := range models.TeachingDays {
		entries = append(entries, weeklyEntry("a"+string(rune('1'+i)), "lect-1", "room-1", "course-1", day, 480, 720))
		entries = append(entries, weeklyEntry("b"+string(rune('1'+i)), "lect-1", "room-2", "course-2", day, 780, 840))
	}
	entries = append(entries, weeklyEntry("c1", "lect-2", "room-1", "course-3", "MONDAY", 780, 900))
	svc := newAnalysisServiceFixture(entries)

	report, err := svc.AnalyzeTimetable(context.Background(), "tt-1", AnalyzeOptions{})
	require.NoError(t, err)

	require.Len(t, report.WorkloadWarnings, 1)
	assert.Equal(t, "lect-1", report.WorkloadWarnings[0].LecturerID)
	assert.Equal(t, 1500, report.WorkloadWarnings[0].TotalMinutes)
	assert.Equal(t, 25.00, report.WorkloadWarnings[0].TotalHours)
}

func TestAnalysisServiceValidateForPublish(t *testing.T) {
	clean := []models.TimetableEntry{
		weeklyEntry("e1", "lect-1", "room-1", "course-1", "MONDAY", 540, 660),
		weeklyEntry("e2", "lect-2", "room-2", "course-2", "MONDAY", 540, 660),
	}
	svc := newAnalysisServiceFixture(clean)

	verdict, err := svc.ValidateForPublish(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)

	conflicting := append(clean, weeklyEntry("e3", "lect-1", "room-1", "course-3", "MONDAY", 600, 720))
	svc = newAnalysisServiceFixture(conflicting)
	verdict, err = svc.ValidateForPublish(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
}

func TestAnalysisServiceValidateForPublishEmptyTimetable(t *testing.T) {
	svc := newAnalysisServiceFixture(nil)

	verdict, err := svc.ValidateForPublish(context.Background(), "tt-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
}
