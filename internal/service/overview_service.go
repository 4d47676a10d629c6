package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

const (
	overviewCacheKey     = "overview:v1"
	overviewCachePattern = "overview:*"
)

type overviewSlotRepo interface {
	CountsBySection(ctx context.Context) ([]repository.SectionSlotCounts, error)
}

type overviewStudentRepo interface {
	CountActiveBySection(ctx context.Context) (map[string]int, error)
}

type overviewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// OverviewService aggregates per-section slot state for the TA dashboard.
// The payload is cached; every schedule mutation invalidates it.
type OverviewService struct {
	sections scheduleSectionRepo
	slots    overviewSlotRepo
	students overviewStudentRepo
	cache    overviewCache
	ttl      time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewOverviewService constructs an OverviewService.
func NewOverviewService(
	sections scheduleSectionRepo,
	slots overviewSlotRepo,
	students overviewStudentRepo,
	cache overviewCache,
	ttl time.Duration,
	metrics *MetricsService,
	logger *zap.Logger,
) *OverviewService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{
		sections: sections,
		slots:    slots,
		students: students,
		cache:    cache,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// Get returns the overview, served from cache when fresh.
func (s *OverviewService) Get(ctx context.Context) (*dto.OverviewResponse, error) {
	if s.cache != nil {
		var cached dto.OverviewResponse
		err := s.cache.Get(ctx, overviewCacheKey, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("overview cache read failed", "error", err)
		}
	}

	response, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, overviewCacheKey, response, s.ttl); err != nil {
			s.logger.Sugar().Warnw("overview cache write failed", "error", err)
		}
	}
	return response, nil
}

func (s *OverviewService) build(ctx context.Context) (*dto.OverviewResponse, error) {
	sections, err := s.sections.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load sections")
	}
	counts, err := s.slots.CountsBySection(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to aggregate slots")
	}
	studentCounts, err := s.students.CountActiveBySection(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to count students")
	}

	countsBySection := make(map[string]repository.SectionSlotCounts, len(counts))
	for _, c := range counts {
		countsBySection[c.SectionID] = c
	}

	response := &dto.OverviewResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Sections:    make([]dto.SectionOverview, 0, len(sections)),
	}
	for _, section := range sections {
		c := countsBySection[section.ID]
		item := dto.SectionOverview{
			SectionID:   section.ID,
			Code:        section.Code,
			Name:        section.Name,
			Students:    studentCounts[section.ID],
			Scheduled:   c.Scheduled,
			Unscheduled: c.Unscheduled,
			Locked:      c.Locked,
		}
		if section.TAName != nil {
			item.TAName = *section.TAName
		}
		response.Sections = append(response.Sections, item)
		response.Totals.Students += item.Students
		response.Totals.Scheduled += item.Scheduled
		response.Totals.Unscheduled += item.Unscheduled
		response.Totals.Locked += item.Locked
	}
	return response, nil
}
