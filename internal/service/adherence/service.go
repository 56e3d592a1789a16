package adherence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	"github.com/jwalitptl/recovery-api/pkg/metrics"
)

// Recomputing a report is cheap but bursty dashboards hammer it; a short
// TTL keeps repeat reads off the store without hiding fresh submissions
// for long.
const (
	reportCacheTTL     = 30 * time.Second
	reportCacheCleanup = 5 * time.Minute
)

type AdherenceService interface {
	TaskAdherence(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.TaskAdherence, error)
	MedicationAdherence(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.MedicationAdherence, error)
	// Report combines both rates and writes the overall value back onto
	// the patient's cached adherence_rate when it changed.
	Report(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.AdherenceReport, error)
}

type Service struct {
	patients repository.PatientRepository
	tasks    repository.TaskRepository
	meds     repository.MedicationRepository
	clock    clock.Clock
	cache    *gocache.Cache
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(
	patients repository.PatientRepository,
	tasks repository.TaskRepository,
	meds repository.MedicationRepository,
	clk clock.Clock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients: patients,
		tasks:    tasks,
		meds:     meds,
		clock:    clk,
		cache:    gocache.New(reportCacheTTL, reportCacheCleanup),
		metrics:  m,
		logger:   logger.With().Str("service", "adherence").Logger(),
	}
}

func (s *Service) TaskAdherence(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.TaskAdherence, error) {
	w := s.resolveRequested(window)
	tasks, err := s.tasks.ListByPatient(ctx, patientID, &w)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	score := TaskScore(tasks, s.clock.Now())
	return &score, nil
}

func (s *Service) MedicationAdherence(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.MedicationAdherence, error) {
	w := s.resolveRequested(window)
	meds, err := s.meds.ListActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load medications: %w", err)
	}

	score := MedicationScore(meds, w)
	return &score, nil
}

func (s *Service) Report(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) (*model.AdherenceReport, error) {
	w := s.resolveRequested(window)

	cacheKey := fmt.Sprintf("report:%s:%d:%d", patientID, w.Start.Unix(), w.End.Unix())
	if cached, ok := s.cache.Get(cacheKey); ok {
		if s.metrics != nil {
			s.metrics.AdherenceCacheHits.Inc()
		}
		return cached.(*model.AdherenceReport), nil
	}

	start := time.Now()

	// Resource must exist before we score it.
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}

	taskScore, err := s.TaskAdherence(ctx, patientID, &w)
	if err != nil {
		return nil, err
	}
	medScore, err := s.MedicationAdherence(ctx, patientID, &w)
	if err != nil {
		return nil, err
	}

	report := &model.AdherenceReport{
		OverallAdherence:    Combine(taskScore.AdherenceRate, medScore.AdherenceRate),
		TaskAdherence:       taskScore.AdherenceRate,
		MedicationAdherence: medScore.AdherenceRate,
		TaskDetails:         *taskScore,
		MedicationDetails:   *medScore,
	}

	// The repository runs this as a single conditional UPDATE, so the
	// write-back is last-write-wins without a read-modify-write window.
	if err := s.patients.UpdateAdherenceRate(ctx, patientID, report.OverallAdherence); err != nil {
		return nil, fmt.Errorf("failed to write back adherence rate: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AdherenceComputations.Inc()
		s.metrics.AdherenceLatency.Observe(time.Since(start).Seconds())
	}
	s.logger.Debug().
		Str("patient_id", patientID.String()).
		Int("overall", report.OverallAdherence).
		Msg("adherence report computed")

	s.cache.Set(cacheKey, report, gocache.DefaultExpiration)
	return report, nil
}

func (s *Service) resolveRequested(window *model.TimeRange) model.TimeRange {
	now := s.clock.Now()
	if window == nil {
		return DefaultWindow(now)
	}
	w := *window
	if w.Start.IsZero() {
		w.Start = now.AddDate(0, 0, -defaultWindowDays)
	}
	if w.End.IsZero() {
		w.End = now
	}
	return w
}
