package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/pkg/config"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type settingStore interface {
	GetByKey(ctx context.Context, key string) (*models.Setting, error)
	GetAll(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// SettingsService merges persisted settings over environment defaults and
// hands every scheduling run a typed snapshot. No ambient globals: callers
// load settings per operation so a mid-run update never splits one run
// across two configurations.
type SettingsService struct {
	store     settingStore
	defaults  config.SchedulerConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(store settingStore, defaults config.SchedulerConfig, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, defaults: defaults, validator: validate, logger: logger}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load builds the typed schedule settings in effect right now.
func (s *SettingsService) Load(ctx context.Context) (models.ScheduleSettings, error) {
	settings, err := s.loadDefaults()
	if err != nil {
		return models.ScheduleSettings{}, err
	}

	stored, err := s.store.GetAll(ctx)
	if err != nil {
		return models.ScheduleSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load settings")
	}

	for _, entry := range stored {
		if err := applySetting(&settings, entry); err != nil {
			s.logger.Sugar().Warnw("ignoring malformed setting", "key", entry.Key, "value", entry.Value, "error", err)
		}
	}

	if err := validateSettings(settings); err != nil {
		return models.ScheduleSettings{}, err
	}
	return settings, nil
}

func (s *SettingsService) loadDefaults() (models.ScheduleSettings, error) {
	day, ok := weekdayNames[strings.ToLower(s.defaults.DefaultExamDay)]
	if !ok {
		return models.ScheduleSettings{}, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown exam day %q", s.defaults.DefaultExamDay))
	}
	start, err := models.ParseClock(s.defaults.DefaultStartTime)
	if err != nil {
		return models.ScheduleSettings{}, appErrors.Clone(appErrors.ErrInternal, "invalid default start time")
	}
	end, err := models.ParseClock(s.defaults.DefaultEndTime)
	if err != nil {
		return models.ScheduleSettings{}, appErrors.Clone(appErrors.ErrInternal, "invalid default end time")
	}

	settings := models.ScheduleSettings{
		ExamDay:         day,
		StartMinute:     start,
		EndMinute:       end,
		DurationMinutes: s.defaults.DefaultDuration,
		BufferMinutes:   s.defaults.DefaultBuffer,
		TotalExams:      s.defaults.DefaultTotalExams,
	}

	// Quarter start usually comes from the settings table; the env default
	// is optional.
	if s.defaults.DefaultQuarterStart != "" {
		quarterStart, err := time.Parse("2006-01-02", s.defaults.DefaultQuarterStart)
		if err != nil {
			return models.ScheduleSettings{}, appErrors.Clone(appErrors.ErrInternal, "invalid default quarter start")
		}
		settings.QuarterStart = quarterStart
	}
	return settings, nil
}

func applySetting(settings *models.ScheduleSettings, entry models.Setting) error {
	switch entry.Key {
	case models.SettingExamDay:
		day, ok := weekdayNames[strings.ToLower(entry.Value)]
		if !ok {
			return fmt.Errorf("unknown weekday %q", entry.Value)
		}
		settings.ExamDay = day
	case models.SettingExamStartTime:
		minute, err := models.ParseClock(entry.Value)
		if err != nil {
			return err
		}
		settings.StartMinute = minute
	case models.SettingExamEndTime:
		minute, err := models.ParseClock(entry.Value)
		if err != nil {
			return err
		}
		settings.EndMinute = minute
	case models.SettingExamDuration:
		n, err := strconv.Atoi(entry.Value)
		if err != nil {
			return err
		}
		settings.DurationMinutes = n
	case models.SettingExamBuffer:
		n, err := strconv.Atoi(entry.Value)
		if err != nil {
			return err
		}
		settings.BufferMinutes = n
	case models.SettingQuarterStart:
		date, err := time.Parse("2006-01-02", entry.Value)
		if err != nil {
			return err
		}
		settings.QuarterStart = date
	case models.SettingTotalExams:
		n, err := strconv.Atoi(entry.Value)
		if err != nil {
			return err
		}
		settings.TotalExams = n
	}
	return nil
}

func validateSettings(settings models.ScheduleSettings) error {
	if settings.DurationMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "exam duration must be positive")
	}
	if settings.BufferMinutes < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "exam buffer cannot be negative")
	}
	if settings.WindowMinutes() < settings.DurationMinutes {
		return appErrors.Clone(appErrors.ErrValidation, "exam window is shorter than one exam")
	}
	if settings.TotalExams <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "total exams must be positive")
	}
	if settings.QuarterStart.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "quarter start date is not configured")
	}
	return nil
}

// List returns all persisted settings as API items.
func (s *SettingsService) List(ctx context.Context) ([]dto.SettingItem, error) {
	stored, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load settings")
	}
	items := make([]dto.SettingItem, 0, len(stored))
	for _, entry := range stored {
		item := dto.SettingItem{Key: entry.Key, Value: entry.Value, Type: string(entry.Type)}
		if entry.Description != nil {
			item.Description = *entry.Description
		}
		items = append(items, item)
	}
	return items, nil
}

// Describe reports the merged typed configuration, including the derived
// per-week capacity.
func (s *SettingsService) Describe(ctx context.Context) (*dto.ScheduleSettingsResponse, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	capacity := 0
	if stride := settings.DurationMinutes + settings.BufferMinutes; stride > 0 {
		capacity = (settings.WindowMinutes() + settings.BufferMinutes) / stride
	}
	return &dto.ScheduleSettingsResponse{
		ExamDay:         strings.ToLower(settings.ExamDay.String()),
		StartTime:       models.MinuteToClock(settings.StartMinute),
		EndTime:         models.MinuteToClock(settings.EndMinute),
		DurationMinutes: settings.DurationMinutes,
		BufferMinutes:   settings.BufferMinutes,
		QuarterStart:    settings.QuarterStart.Format("2006-01-02"),
		TotalExams:      settings.TotalExams,
		WindowMinutes:   settings.WindowMinutes(),
		WeekCapacity:    capacity,
	}, nil
}

// Update validates and persists one setting, rejecting unknown keys and
// values the scheduler could not consume.
func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingRequest, actor string) (*dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid setting payload")
	}

	settingType, ok := settingTypes[req.Key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown setting key %q", req.Key))
	}
	if err := validateSettingValue(req.Key, req.Value); err != nil {
		return nil, err
	}

	entry := &models.Setting{Key: req.Key, Value: req.Value, Type: settingType}
	if actor != "" {
		entry.UpdatedBy = &actor
	}
	if existing, err := s.store.GetByKey(ctx, req.Key); err == nil {
		entry.Description = existing.Description
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load setting")
	}

	if err := s.store.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to save setting")
	}
	s.logger.Sugar().Infow("setting updated", "key", req.Key, "actor", actor)

	item := dto.SettingItem{Key: entry.Key, Value: entry.Value, Type: string(entry.Type)}
	if entry.Description != nil {
		item.Description = *entry.Description
	}
	return &item, nil
}

// BulkUpdate applies several setting updates, failing fast on the first
// invalid entry.
func (s *SettingsService) BulkUpdate(ctx context.Context, req dto.BulkUpdateSettingRequest, actor string) ([]dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload")
	}
	items := make([]dto.SettingItem, 0, len(req.Items))
	for _, update := range req.Items {
		item, err := s.Update(ctx, update, actor)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

var settingTypes = map[string]models.SettingType{
	models.SettingExamDay:         models.SettingTypeString,
	models.SettingExamStartTime:   models.SettingTypeTime,
	models.SettingExamEndTime:     models.SettingTypeTime,
	models.SettingExamDuration:    models.SettingTypeInteger,
	models.SettingExamBuffer:      models.SettingTypeInteger,
	models.SettingQuarterStart:    models.SettingTypeDate,
	models.SettingTotalExams:      models.SettingTypeInteger,
	models.SettingNotificationsOn: models.SettingTypeBoolean,
}

func validateSettingValue(key, value string) error {
	switch settingTypes[key] {
	case models.SettingTypeInteger:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires a non-negative integer", key))
		}
	case models.SettingTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires a boolean", key))
		}
	case models.SettingTypeTime:
		if _, err := models.ParseClock(value); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires HH:MM", key))
		}
	case models.SettingTypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s requires YYYY-MM-DD", key))
		}
	case models.SettingTypeString:
		if key == models.SettingExamDay {
			if _, ok := weekdayNames[strings.ToLower(value)]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, "exam_day requires a weekday name")
			}
		}
	}
	return nil
}
