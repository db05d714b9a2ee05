package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type registerBody struct {
	Phone string `json:"phone" validate:"required"`
	PIN   string `json:"pin" validate:"required,numeric,min=4"`
}

func newBindApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if !errors.As(err, &fe) {
				return c.SendStatus(http.StatusInternalServerError)
			}
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		},
	})
	app.Post("/", func(c *fiber.Ctx) error {
		var body registerBody
		if err := Bind(c, &body); err != nil {
			return err
		}
		return c.JSON(body)
	})
	return app
}

func TestBind(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"valid", `{"phone":"+233200000001","pin":"1234"}`, http.StatusOK, ""},
		{"malformed", `{"phone":`, http.StatusBadRequest, "malformed request body"},
		{"missing phone", `{"pin":"1234"}`, http.StatusBadRequest, "phone is required"},
		{"letters in pin", `{"phone":"+1","pin":"12ab"}`, http.StatusBadRequest, "pin must contain digits only"},
		{"short pin", `{"phone":"+1","pin":"12"}`, http.StatusBadRequest, "pin must be at least 4 characters"},
	}
	app := newBindApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(tc.body))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.message != "" {
				var out map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
				require.Equal(t, tc.message, out["error"])
			}
		})
	}
}
