package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/campushub/timetable-api/internal/models"
	"github.com/campushub/timetable-api/pkg/config"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type analysisEntryRepository interface {
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	ListByLecturer(ctx context.Context, lecturerID, timetableID string) ([]models.TimetableEntry, error)
}

type analysisRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type analysisLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
}

type analysisTimetableReader interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
}

// AnalyzeOptions tunes a timetable analysis run. ExpectedStudents maps course
// ids to enrolment counts; courses absent from the map have unknown counts
// and pass capacity checks optimistically unless ReportUnknownCapacity asks
// for them to be surfaced.
type AnalyzeOptions struct {
	ExpectedStudents      map[string]int
	ReportUnknownCapacity bool
	ThresholdMinutes      int
}

func (o AnalyzeOptions) cacheable() bool {
	return len(o.ExpectedStudents) == 0 && !o.ReportUnknownCapacity && o.ThresholdMinutes == 0
}

// AnalysisService derives workload reports and whole-timetable health
// reports from stored entries. Reading the same data twice yields the same
// report; analysis never mutates anything.
type AnalysisService struct {
	entries    analysisEntryRepository
	rooms      analysisRoomReader
	lecturers  analysisLecturerReader
	timetables analysisTimetableReader
	cache      *ReportCacheService
	threshold  int
	logger     *zap.Logger
}

// NewAnalysisService instantiates AnalysisService.
func NewAnalysisService(
	entries analysisEntryRepository,
	rooms analysisRoomReader,
	lecturers analysisLecturerReader,
	timetables analysisTimetableReader,
	cache *ReportCacheService,
	cfg config.SchedulingConfig,
	logger *zap.Logger,
) *AnalysisService {
	threshold := cfg.WorkloadThresholdMinutes
	if threshold <= 0 {
		threshold = 1200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		entries:    entries,
		rooms:      rooms,
		lecturers:  lecturers,
		timetables: timetables,
		cache:      cache,
		threshold:  threshold,
		logger:     logger,
	}
}

// roundHours converts minutes to hours rounded to two decimals.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// ComputeWorkload sums a lecturer's weekly scheduled minutes, optionally
// scoped to one timetable. A zero thresholdMinutes falls back to the
// configured default.
func (s *AnalysisService) ComputeWorkload(ctx context.Context, lecturerID, timetableID string, thresholdMinutes int) (*models.WorkloadReport, error) {
	if _, err := s.lecturers.FindByID(ctx, lecturerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "lecturer does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}

	entries, err := s.entries.ListByLecturer(ctx, lecturerID, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer entries")
	}

	threshold := thresholdMinutes
	if threshold <= 0 {
		threshold = s.threshold
	}

	total := 0
	for _, entry := range entries {
		total += entry.DurationMinutes()
	}

	return &models.WorkloadReport{
		LecturerID:       lecturerID,
		TimetableID:      timetableID,
		TotalMinutes:     total,
		TotalHours:       roundHours(total),
		ThresholdMinutes: threshold,
		Overload:         total > threshold,
		EntryCount:       len(entries),
	}, nil
}

// AnalyzeTimetable produces the full health report of one timetable:
// pairwise lecturer and room conflicts among its entries, capacity issues
// for supplied enrolment counts, and per-lecturer workload warnings. The
// default run (no options) is served from the report cache when enabled.
func (s *AnalysisService) AnalyzeTimetable(ctx context.Context, timetableID string, opts AnalyzeOptions) (*models.TimetableReport, error) {
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	cacheKey := TimetableReportKey(timetableID)
	if s.cache != nil && opts.cacheable() {
		var cached models.TimetableReport
		if s.cache.GetJSON(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	entries, err := s.entries.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries")
	}

	report := &models.TimetableReport{
		TimetableID:  timetableID,
		TotalEntries: len(entries),
	}
	report.LecturerConflicts, report.RoomConflicts = pairwiseConflicts(entries)

	capacity, err := s.capacityIssues(ctx, entries, opts)
	if err != nil {
		return nil, err
	}
	report.CapacityIssues = capacity

	threshold := opts.ThresholdMinutes
	if threshold <= 0 {
		threshold = s.threshold
	}
	report.WorkloadWarnings = workloadWarnings(entries, threshold)

	if s.cache != nil && opts.cacheable() {
		s.cache.SetJSON(ctx, cacheKey, report)
	}
	return report, nil
}

// ValidateForPublish decides whether a timetable may be published: it must
// hold at least one entry and carry no lecturer or room conflicts. Capacity
// issues and workload warnings are informational and never block.
func (s *AnalysisService) ValidateForPublish(ctx context.Context, timetableID string) (*models.PublishValidation, error) {
	report, err := s.AnalyzeTimetable(ctx, timetableID, AnalyzeOptions{})
	if err != nil {
		return nil, err
	}
	valid := report.TotalEntries > 0 &&
		len(report.LecturerConflicts) == 0 &&
		len(report.RoomConflicts) == 0
	return &models.PublishValidation{Valid: valid, Report: *report}, nil
}

// pairwiseConflicts scans entry pairs of one timetable for double-booked
// lecturers and rooms. Each colliding pair is reported once.
func pairwiseConflicts(entries []models.TimetableEntry) (lecturer, room []models.ConflictPair) {
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if !entries[i].Overlaps(entries[j]) {
				continue
			}
			if entries[i].LecturerID == entries[j].LecturerID {
				lecturer = append(lecturer, models.ConflictPair{
					Dimension: "lecturer",
					First:     entries[i],
					Second:    entries[j],
				})
			}
			if entries[i].RoomID == entries[j].RoomID {
				room = append(room, models.ConflictPair{
					Dimension: "room",
					First:     entries[i],
					Second:    entries[j],
				})
			}
		}
	}
	return lecturer, room
}

func (s *AnalysisService) capacityIssues(ctx context.Context, entries []models.TimetableEntry, opts AnalyzeOptions) ([]models.CapacityIssue, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	roomCapacity := map[string]int{}
	var issues []models.CapacityIssue
	for _, entry := range entries {
		capacity, ok := roomCapacity[entry.RoomID]
		if !ok {
			room, err := s.rooms.FindByID(ctx, entry.RoomID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
			}
			capacity = room.Capacity
			roomCapacity[entry.RoomID] = capacity
		}

		expected, known := opts.ExpectedStudents[entry.CourseID]
		if !known {
			if opts.ReportUnknownCapacity {
				issues = append(issues, models.CapacityIssue{
					EntryID:      entry.ID,
					CourseID:     entry.CourseID,
					RoomID:       entry.RoomID,
					RoomCapacity: capacity,
					Unknown:      true,
				})
			}
			continue
		}
		if expected > capacity {
			issues = append(issues, models.CapacityIssue{
				EntryID:          entry.ID,
				CourseID:         entry.CourseID,
				RoomID:           entry.RoomID,
				RoomCapacity:     capacity,
				ExpectedStudents: expected,
			})
		}
	}
	return issues, nil
}

// workloadWarnings emits one warning per lecturer whose minutes inside this
// timetable exceed the threshold, in deterministic lecturer order.
func workloadWarnings(entries []models.TimetableEntry, threshold int) []models.WorkloadWarning {
	totals := map[string]int{}
	for _, entry := range entries {
		totals[entry.LecturerID] += entry.DurationMinutes()
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var warnings []models.WorkloadWarning
	for _, id := range ids {
		if totals[id] > threshold {
			warnings = append(warnings, models.WorkloadWarning{
				LecturerID:   id,
				TotalMinutes: totals[id],
				TotalHours:   roundHours(totals[id]),
				Threshold:    threshold,
			})
		}
	}
	return warnings
}
