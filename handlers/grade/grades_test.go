package grade

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolpulse/api/database"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/response"
)

func newGradeApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:grade_handler_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	handler := NewGradeHandler(services.NewGradeService(db))

	app := fiber.New()
	app.Get("/grades", handler.ListGrades)
	app.Post("/grades", handler.CreateGrade)
	app.Get("/grades/:id", handler.GetGrade)
	app.Put("/grades/:id", handler.UpdateGrade)
	app.Delete("/grades/:id", handler.DeleteGrade)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var envelope response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestGradeEndpoints(t *testing.T) {
	app := newGradeApp(t)

	t.Run("create returns 201 with the grade", func(t *testing.T) {
		resp, envelope := doJSON(t, app, http.MethodPost, "/grades", fiber.Map{
			"name":  "Grade 10",
			"level": "10",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.True(t, envelope.Success)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		resp, envelope := doJSON(t, app, http.MethodPost, "/grades", fiber.Map{
			"level": "11",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
		assert.Contains(t, envelope.Error.Fields, "name")
	})

	t.Run("list returns the created grade", func(t *testing.T) {
		resp, envelope := doJSON(t, app, http.MethodGet, "/grades", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, envelope.Success)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp, envelope := doJSON(t, app, http.MethodGet, "/grades/9999", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/grades/not-a-number", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete then get is 404", func(t *testing.T) {
		_, created := doJSON(t, app, http.MethodPost, "/grades", fiber.Map{
			"name":  "Grade 12",
			"level": "12",
		})
		data, ok := created.Data.(map[string]interface{})
		require.True(t, ok)
		id := int(data["id"].(float64))

		resp, _ := doJSON(t, app, http.MethodDelete, "/grades/"+strconv.Itoa(id), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodGet, "/grades/"+strconv.Itoa(id), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
