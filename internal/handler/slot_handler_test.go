package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exam-slot-api/internal/dto"
	appErrors "github.com/noah-isme/exam-slot-api/pkg/errors"
)

type slotOperatorMock struct {
	manualID  string
	manualReq dto.ManualScheduleRequest
	bulkReq   dto.BulkUnlockRequest
	lockErr   error
}

func (m *slotOperatorMock) Get(ctx context.Context, slotID string) (*dto.SlotResponse, error) {
	return &dto.SlotResponse{ID: slotID}, nil
}

func (m *slotOperatorMock) History(ctx context.Context, slotID string) (*dto.SlotHistoryDetail, error) {
	return &dto.SlotHistoryDetail{Current: dto.SlotResponse{ID: slotID}}, nil
}

func (m *slotOperatorMock) ManualSchedule(ctx context.Context, slotID string, req dto.ManualScheduleRequest, actor string) (*dto.SlotResponse, error) {
	m.manualID = slotID
	m.manualReq = req
	return &dto.SlotResponse{ID: slotID}, nil
}

func (m *slotOperatorMock) Swap(ctx context.Context, slotID string, req dto.SwapSlotsRequest, actor string) ([]dto.SlotResponse, error) {
	return nil, nil
}

func (m *slotOperatorMock) Lock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	return &dto.SlotResponse{ID: slotID, Locked: true}, nil
}

func (m *slotOperatorMock) Unlock(ctx context.Context, slotID, actor string) (*dto.SlotResponse, error) {
	return &dto.SlotResponse{ID: slotID}, nil
}

func (m *slotOperatorMock) BulkUnlock(ctx context.Context, req dto.BulkUnlockRequest, actor string) (*dto.BulkUnlockResponse, error) {
	m.bulkReq = req
	return &dto.BulkUnlockResponse{Unlocked: 4}, nil
}

func (m *slotOperatorMock) AutoLock(ctx context.Context, req dto.AutoLockRequest, actor string) (*dto.AutoLockResponse, error) {
	return &dto.AutoLockResponse{Locked: 2}, nil
}

func (m *slotOperatorMock) Revert(ctx context.Context, slotID string, req dto.RevertSlotRequest, actor string) (*dto.SlotResponse, error) {
	return &dto.SlotResponse{ID: slotID}, nil
}

func TestManualScheduleBindsPathAndPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &slotOperatorMock{}
	handler := &SlotHandler{service: mockSvc}
	router := gin.New()
	router.PUT("/slots/:id/schedule", handler.ManualSchedule)

	payload := []byte(`{"date":"2026-01-09","startTime":"13:38","pushSubsequent":true}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/slots/slot-7/schedule", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "slot-7", mockSvc.manualID)
	require.Equal(t, "13:38", mockSvc.manualReq.StartTime)
	require.True(t, mockSvc.manualReq.PushSubsequent)
}

func TestManualScheduleRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SlotHandler{service: &slotOperatorMock{}}
	router := gin.New()
	router.PUT("/slots/:id/schedule", handler.ManualSchedule)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/slots/slot-7/schedule", bytes.NewReader([]byte(`{"date":`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLockMapsLockedConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &slotOperatorMock{lockErr: appErrors.Clone(appErrors.ErrValidation, "cannot lock an unscheduled slot")}
	handler := &SlotHandler{service: mockSvc}
	router := gin.New()
	router.POST("/slots/:id/lock", handler.Lock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/slots/slot-7/lock", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkUnlockBindsOptionalFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &slotOperatorMock{}
	handler := &SlotHandler{service: mockSvc}
	router := gin.New()
	router.POST("/slots/unlock", handler.BulkUnlock)

	payload := []byte(`{"examNumber":2,"cohort":"odd"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/slots/unlock", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, mockSvc.bulkReq.ExamNumber)
	require.Equal(t, "odd", mockSvc.bulkReq.Cohort)
}

func TestBulkUnlockAllowsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SlotHandler{service: &slotOperatorMock{}}
	router := gin.New()
	router.POST("/slots/unlock", handler.BulkUnlock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/slots/unlock", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAutoLockAllowsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SlotHandler{service: &slotOperatorMock{}}
	router := gin.New()
	router.POST("/slots/auto-lock", handler.AutoLock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/slots/auto-lock", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
