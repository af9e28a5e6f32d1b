package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/orelens/internal/logging"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"longer than 32 chars", generateAPIKey(64), true},
		{"too short", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", strings.Repeat(" ", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("abc"); got != "****" {
		t.Errorf("Expected '****', got %q", got)
	}
	if got := maskAPIKey(generateAPIKey(32)); got != "abcd****" {
		t.Errorf("Expected 'abcd****', got %q", got)
	}
}

func newAuthApp(keys []string, enabled bool) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), keys, enabled))
	app.Get("/v1/detectors", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/detectors", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth_Headers(t *testing.T) {
	key := generateAPIKey(40)
	app := newAuthApp([]string{key, "short"}, true)

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"x-api-key", APIKeyHeader, key, fiber.StatusOK},
		{"bearer", fiber.HeaderAuthorization, "Bearer " + key, fiber.StatusOK},
		{"bare authorization", fiber.HeaderAuthorization, key, fiber.StatusOK},
		{"missing", "", "", fiber.StatusUnauthorized},
		{"wrong key", APIKeyHeader, generateAPIKey(41), fiber.StatusUnauthorized},
		{"weak key is not accepted", APIKeyHeader, "short", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/detectors", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestKnownKey(t *testing.T) {
	keys := [][]byte{[]byte(generateAPIKey(32)), []byte(generateAPIKey(33))}

	if !knownKey(keys, generateAPIKey(33)) {
		t.Error("Expected second key to match")
	}
	if knownKey(keys, generateAPIKey(34)) {
		t.Error("Expected unknown key to be rejected")
	}
	if knownKey(nil, "anything") {
		t.Error("Expected no match with no keys")
	}
}
