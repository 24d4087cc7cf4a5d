package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookverse-api/internal/utils"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, errorEnvelope) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandlerUnknownRoute(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})

	status, body := doRequest(t, app, http.MethodGet, "/no-such-route")

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, body.Success)
	assert.Equal(t, utils.CodeNotFound, body.Error.Code)
}

func TestErrorHandlerFiberError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/boom", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "плохой запрос")
	})

	status, body := doRequest(t, app, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, utils.CodeInvalidInput, body.Error.Code)
	assert.Equal(t, "плохой запрос", body.Error.Message)
}

func TestErrorHandlerInternal(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/panic-free", func(c fiber.Ctx) error {
		return assert.AnError
	})

	status, body := doRequest(t, app, http.MethodGet, "/panic-free")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, utils.CodeInternalError, body.Error.Code)
}
