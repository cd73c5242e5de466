package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"medibook-server/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=customer doctor admin"`
}

type slotRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04,timeafter=StartTime"`
}

func fieldMap(t *testing.T, err error) map[string]string {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	out := map[string]string{}
	for _, f := range appErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidateCollectsEveryField(t *testing.T) {
	err := Validate(&signupRequest{Email: "not-an-email", Password: "123", Role: "patient"})

	fields := fieldMap(t, err)
	assert.Equal(t, map[string]string{
		"name":     "is required",
		"email":    "must be a valid email address",
		"password": "must be at least 6 characters",
		"role":     "must be one of: customer, doctor, admin",
	}, fields)
}

func TestValidateTimes(t *testing.T) {
	assert.NoError(t, Validate(&slotRequest{Date: "2030-05-01", StartTime: "09:00", EndTime: "10:00"}))

	fields := fieldMap(t, Validate(&slotRequest{Date: "01/05/2030", StartTime: "9am", EndTime: "10:00"}))
	assert.Equal(t, "must be a date in YYYY-MM-DD format", fields["date"])
	assert.Equal(t, "must be a time in HH:MM format", fields["start_time"])
	assert.NotContains(t, fields, "end_time")

	fields = fieldMap(t, Validate(&slotRequest{Date: "2030-05-01", StartTime: "10:00", EndTime: "09:30"}))
	assert.Equal(t, "must be after the start time", fields["end_time"])
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"name":"John Doe","email":"john@example.com","password":"password123","role":"customer"}`, true, http.StatusOK},
		{"malformed json", `{"name":`, false, http.StatusBadRequest},
		{"invalid fields", `{"name":"","email":"x","password":"1","role":"customer"}`, false, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req signupRequest
			ok := BindAndValidate(c, &req)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)

	HandleError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "An unexpected error occurred", resp.Error)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestHandleErrorTyped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/appointments", nil)

	HandleError(c, apperror.Conflict("Timeslot is not available"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ResponseData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Timeslot is not available", resp.Error)
}
