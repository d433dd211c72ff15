package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealth(t *testing.T) {
	e := echo.New()
	h := &OpsHandler{Cfg: testConfig(), Store: testChunks(t)}
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	if err := h.health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDiagnostic(t *testing.T) {
	e := echo.New()
	cfg := testConfig()
	cfg.Providers.OpenAI.APIKey = "set"
	h := &OpsHandler{Cfg: cfg, Store: testChunks(t)}
	req := httptest.NewRequest(http.MethodGet, "/api/diagnostic", nil)
	rec := httptest.NewRecorder()
	if err := h.diagnostic(e.NewContext(req, rec)); err != nil {
		t.Fatalf("diagnostic: %v", err)
	}

	var resp struct {
		Status     string `json:"status"`
		Embeddings struct {
			Count     int      `json:"count"`
			Dimension int      `json:"dimension"`
			SampleIDs []string `json:"sample_ids"`
		} `json:"embeddings"`
		Environment struct {
			OpenAISet    bool `json:"openai_api_key_set"`
			AnthropicSet bool `json:"anthropic_api_key_set"`
		} `json:"environment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Embeddings.Count != 2 || resp.Embeddings.Dimension != 2 {
		t.Fatalf("unexpected diagnostic payload: %+v", resp)
	}
	if len(resp.Embeddings.SampleIDs) != 2 || resp.Embeddings.SampleIDs[0] != "experience" {
		t.Fatalf("unexpected sample ids: %v", resp.Embeddings.SampleIDs)
	}
	if !resp.Environment.OpenAISet || resp.Environment.AnthropicSet {
		t.Fatalf("unexpected environment flags: %+v", resp.Environment)
	}
}
