package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/pkg/config"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type settingStoreStub struct {
	items map[string]*models.Setting
}

func newSettingStoreStub(items ...models.Setting) *settingStoreStub {
	stub := &settingStoreStub{items: make(map[string]*models.Setting)}
	for _, item := range items {
		copied := item
		stub.items[copied.Key] = &copied
	}
	return stub
}

func (s *settingStoreStub) GetByKey(ctx context.Context, key string) (*models.Setting, error) {
	if item, ok := s.items[key]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *settingStoreStub) GetAll(ctx context.Context) ([]models.Setting, error) {
	var items []models.Setting
	for _, item := range s.items {
		items = append(items, *item)
	}
	return items, nil
}

func (s *settingStoreStub) Upsert(ctx context.Context, setting *models.Setting) error {
	copied := *setting
	s.items[copied.Key] = &copied
	return nil
}

func schedulerDefaults() config.SchedulerConfig {
	return config.SchedulerConfig{
		DefaultExamDay:      "friday",
		DefaultStartTime:    "13:30",
		DefaultEndTime:      "14:50",
		DefaultDuration:     7,
		DefaultBuffer:       1,
		DefaultTotalExams:   5,
		DefaultQuarterStart: "2026-01-05",
	}
}

func newSettingsService(store settingStore) *SettingsService {
	return NewSettingsService(store, schedulerDefaults(), validator.New(), zap.NewNop())
}

func TestLoadUsesDefaultsWhenTableEmpty(t *testing.T) {
	service := newSettingsService(newSettingStoreStub())

	settings, err := service.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Friday, settings.ExamDay)
	assert.Equal(t, 810, settings.StartMinute)
	assert.Equal(t, 890, settings.EndMinute)
	assert.Equal(t, 7, settings.DurationMinutes)
	assert.Equal(t, 1, settings.BufferMinutes)
	assert.Equal(t, 5, settings.TotalExams)
	assert.Equal(t, "2026-01-05", settings.QuarterStart.Format("2006-01-02"))
}

func TestLoadMergesStoredOverDefaults(t *testing.T) {
	service := newSettingsService(newSettingStoreStub(
		models.Setting{Key: models.SettingExamDay, Value: "monday", Type: models.SettingTypeString},
		models.Setting{Key: models.SettingExamDuration, Value: "10", Type: models.SettingTypeInteger},
	))

	settings, err := service.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Monday, settings.ExamDay)
	assert.Equal(t, 10, settings.DurationMinutes)
	// Untouched keys keep their env defaults.
	assert.Equal(t, 810, settings.StartMinute)
}

func TestLoadIgnoresMalformedStoredValue(t *testing.T) {
	service := newSettingsService(newSettingStoreStub(
		models.Setting{Key: models.SettingExamDuration, Value: "soon", Type: models.SettingTypeInteger},
	))

	settings, err := service.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, settings.DurationMinutes)
}

func TestLoadRejectsWindowShorterThanExam(t *testing.T) {
	service := newSettingsService(newSettingStoreStub(
		models.Setting{Key: models.SettingExamDuration, Value: "120", Type: models.SettingTypeInteger},
	))

	_, err := service.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoadRequiresQuarterStart(t *testing.T) {
	defaults := schedulerDefaults()
	defaults.DefaultQuarterStart = ""
	service := NewSettingsService(newSettingStoreStub(), defaults, validator.New(), zap.NewNop())

	_, err := service.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDescribeDerivesWeekCapacity(t *testing.T) {
	service := newSettingsService(newSettingStoreStub())

	resp, err := service.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "friday", resp.ExamDay)
	assert.Equal(t, "13:30", resp.StartTime)
	assert.Equal(t, "14:50", resp.EndTime)
	assert.Equal(t, 80, resp.WindowMinutes)
	// 80 minute window with a 7+1 stride fits exactly ten slots.
	assert.Equal(t, 10, resp.WeekCapacity)
}

func TestUpdatePersistsAndKeepsDescription(t *testing.T) {
	desc := "Minutes per exam"
	store := newSettingStoreStub(models.Setting{
		Key:         models.SettingExamDuration,
		Value:       "7",
		Type:        models.SettingTypeInteger,
		Description: &desc,
	})
	service := newSettingsService(store)

	item, err := service.Update(context.Background(), dto.UpdateSettingRequest{
		Key:   models.SettingExamDuration,
		Value: "8",
	}, "ta")
	require.NoError(t, err)
	assert.Equal(t, "8", item.Value)
	assert.Equal(t, desc, item.Description)

	saved, err := store.GetByKey(context.Background(), models.SettingExamDuration)
	require.NoError(t, err)
	assert.Equal(t, "8", saved.Value)
	require.NotNil(t, saved.UpdatedBy)
	assert.Equal(t, "ta", *saved.UpdatedBy)
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	service := newSettingsService(newSettingStoreStub())

	_, err := service.Update(context.Background(), dto.UpdateSettingRequest{Key: "mystery", Value: "1"}, "ta")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateRejectsValueOfWrongType(t *testing.T) {
	service := newSettingsService(newSettingStoreStub())

	cases := []dto.UpdateSettingRequest{
		{Key: models.SettingExamDuration, Value: "-3"},
		{Key: models.SettingExamStartTime, Value: "25:99"},
		{Key: models.SettingQuarterStart, Value: "January 5"},
		{Key: models.SettingExamDay, Value: "crunchday"},
		{Key: models.SettingNotificationsOn, Value: "sometimes"},
	}
	for _, req := range cases {
		_, err := service.Update(context.Background(), req, "ta")
		require.Error(t, err, "key %s value %q", req.Key, req.Value)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestBulkUpdateFailsFast(t *testing.T) {
	store := newSettingStoreStub()
	service := newSettingsService(store)

	_, err := service.BulkUpdate(context.Background(), dto.BulkUpdateSettingRequest{
		Items: []dto.UpdateSettingRequest{
			{Key: models.SettingExamDuration, Value: "8"},
			{Key: models.SettingExamBuffer, Value: "soon"},
		},
	}, "ta")
	require.Error(t, err)

	// The first item was applied before the failure.
	saved, err := store.GetByKey(context.Background(), models.SettingExamDuration)
	require.NoError(t, err)
	assert.Equal(t, "8", saved.Value)
	_, err = store.GetByKey(context.Background(), models.SettingExamBuffer)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
