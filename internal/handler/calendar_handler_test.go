package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mirai-juku/scheduling-api/internal/dto"
	"github.com/mirai-juku/scheduling-api/internal/middleware"
	"github.com/mirai-juku/scheduling-api/internal/models"
	"github.com/mirai-juku/scheduling-api/internal/service"
	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

type selectedStoreStub struct {
	values map[string][]string
}

func (s *selectedStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	stored, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	ptr, ok := dest.(*[]string)
	if !ok {
		return appErrors.ErrInternal
	}
	*ptr = append([]string(nil), stored...)
	return nil
}

func (s *selectedStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	dates, ok := value.([]string)
	if !ok {
		return appErrors.ErrInternal
	}
	s.values[key] = append([]string(nil), dates...)
	return nil
}

func newCalendarHandlerFixture() (*CalendarHandler, *selectedStoreStub) {
	store := &selectedStoreStub{values: make(map[string][]string)}
	svc := service.NewSelectedDatesService(store, time.Hour, nil, nil)
	return NewCalendarHandler(svc), store
}

func calendarTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestCalendarHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newCalendarHandlerFixture()
	c, w := calendarTestContext(t, http.MethodGet, "/calendar/selected-dates", nil)

	handler.GetSelectedDates(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCalendarHandlerPutThenGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newCalendarHandlerFixture()

	body := []byte(`{"dates":["2100-01-02","2100-01-01","2100-01-02"]}`)
	c, w := calendarTestContext(t, http.MethodPut, "/calendar/selected-dates", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff})

	handler.PutSelectedDates(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"2100-01-01", "2100-01-02"}, store.values["calendar:selected:u1"])

	c, w = calendarTestContext(t, http.MethodGet, "/calendar/selected-dates", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff})

	handler.GetSelectedDates(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.SelectedDatesPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, []string{"2100-01-01", "2100-01-02"}, envelope.Data.Dates)
}

func TestCalendarHandlerPutRejectsMalformedDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newCalendarHandlerFixture()

	body := []byte(`{"dates":["01/02/2100"]}`)
	c, w := calendarTestContext(t, http.MethodPut, "/calendar/selected-dates", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff})

	handler.PutSelectedDates(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
