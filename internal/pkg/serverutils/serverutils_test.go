package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{name: "valid", req: sampleRequest{Query: "q", TopK: 5}},
		{name: "zero top_k allowed", req: sampleRequest{Query: "q"}},
		{name: "missing query", req: sampleRequest{TopK: 3}, wantErr: "query is required"},
		{name: "top_k too large", req: sampleRequest{Query: "q", TopK: 21}, wantErr: "top_k must be at most 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidRequest, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantErr)
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/store", func(c *fiber.Ctx) error { return apperror.StoreUnavailable(errors.New("refused")) })
	app.Get("/bad", func(c *fiber.Ctx) error { return apperror.InvalidRequest("query is required") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{path: "/store", wantStatus: fiber.StatusServiceUnavailable, wantCode: apperror.CodeStoreUnavailable, retryable: true},
		{path: "/bad", wantStatus: fiber.StatusBadRequest, wantCode: apperror.CodeInvalidRequest},
		{path: "/missing", wantStatus: fiber.StatusNotFound, wantCode: "HTTP_ERROR"},
		{path: "/boom", wantStatus: fiber.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ErrorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.retryable, body.Retryable)
		})
	}
}
