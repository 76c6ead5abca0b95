package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"report-backend/internal/shared/telemetry"
)

func TestRecoveryReturnsEnvelopeAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/api/report/:id", func(c *gin.Context) {
		c.Set("userId", "owner-1")
		c.Set("reportId", c.Param("id"))
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/report/r-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body.Error.Code != "internal_error" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}

	var panicLine map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if json.Unmarshal([]byte(line), &entry) == nil && entry["msg"] == "panic" {
			panicLine = entry
		}
	}
	if panicLine == nil {
		t.Fatalf("missing panic log line in %s", buf.String())
	}
	if panicLine["error"] != "boom" || panicLine["user_id"] != "owner-1" || panicLine["report_id"] != "r-1" {
		t.Fatalf("unexpected panic fields %v", panicLine)
	}
}
