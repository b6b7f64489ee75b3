package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careprep/ai-service/internal/handler/chat"
	"github.com/careprep/ai-service/internal/handler/health"
	"github.com/careprep/ai-service/internal/handler/process"
	"github.com/careprep/ai-service/internal/handler/prometheus"
	"github.com/careprep/ai-service/internal/handler/summarize"
	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/internal/prompt"
	"github.com/careprep/ai-service/internal/service/assistant"
	"github.com/careprep/ai-service/pkg/completion"
	"github.com/careprep/ai-service/pkg/httputil"
	"github.com/careprep/ai-service/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, client completion.Completer) *gin.Engine {
	t.Helper()
	reg := prom.NewRegistry()
	m := metrics.NewMetrics("careprep", "ai", reg)
	svc := assistant.NewService(client, nil, m, nil)

	cfg := DefaultRouterConfig()
	cfg.RateLimitEnabled = false

	r, err := NewRouter(cfg, prometheus.New("careprep", reg),
		health.NewHandler(health.Status{}),
		summarize.NewHandler(svc),
		chat.NewHandler(svc),
		process.NewHandler(svc),
	)
	require.NoError(t, err)
	r.Setup()
	return r.Engine()
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	w := do(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"CarePrep AI Service","version":"1.0.0"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLivenessAndReadiness(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	w := do(engine, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	w = do(engine, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","ai_configured":false,"events_enabled":false}`, w.Body.String())
}

func TestEndpointsWithoutCredentialUseFallbacks(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	w := do(engine, http.MethodPost, "/chat", `{"message":"What should I ask my doctor?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var chatRes model.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chatRes))
	assert.True(t, chatRes.Success)
	assert.Contains(t, chatRes.Response, "What should I ask my doctor?")
	assert.Contains(t, chatRes.Response, prompt.Disclaimer)

	w = do(engine, http.MethodPost, "/summarize/text", `{"text":"Patient seen for a sore throat."}`)
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, []interface{}{}, doc["medications"])
	assert.Len(t, doc["followUps"], 1)
	assert.Len(t, doc["redFlags"], 1)
	assert.NotContains(t, doc, "processedText")

	w = do(engine, http.MethodPost, "/summarize/symptoms", `{"symptoms":[{"date":"2024-01-15","symptom":"Headache","severity":7}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Headache (Severity: 7/10)")

	w = do(engine, http.MethodPost, "/process/cleanup", `{"text":"Rx: ibuprof3n"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"text":"Rx: ibuprof3n"}`, w.Body.String())
}

func TestEndpointsWithModel(t *testing.T) {
	reply := "**PATIENT-FRIENDLY SUMMARY** You have a mild cold.\n**MEDICATIONS**\n- name: Ibuprofen\n**FOLLOW-UP ACTIONS**\n- action: Rest for 3 days\n**RED FLAGS**\n- Fever above 103°F"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "cmpl-1",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	defer srv.Close()

	client := completion.NewClient(completion.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 2 * time.Second})
	engine := newEngine(t, client)

	w := do(engine, http.MethodPost, "/process/text", `{"text":"Diagnosis: common cold. Ibuprofen as needed. Rest three days."}`)
	require.Equal(t, http.StatusOK, w.Code)

	var doc model.DocumentSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.True(t, doc.Success)
	assert.Equal(t, "You have a mild cold.", doc.PatientSummary)
	assert.Equal(t, []model.Medication{model.NewMedication("Ibuprofen")}, doc.Medications)
	assert.Equal(t, []model.FollowUp{model.NewFollowUp("Rest for 3 days")}, doc.FollowUps)
	assert.Equal(t, []string{"Fever above 103°F"}, doc.RedFlags)
}

func TestValidationErrors(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	tests := []struct {
		name    string
		path    string
		body    string
		message string
	}{
		{"no body", "/chat", "", "No data provided"},
		{"bad json", "/chat", `{"message":`, "Invalid JSON body"},
		{"no message", "/chat", `{"mode":"pre_visit"}`, "Message is required"},
		{"bad mode", "/chat", `{"message":"hi","mode":"during"}`, "Mode must be pre_visit or post_visit"},
		{"pre-visit no message", "/chat/pre-visit", `{"symptoms":[]}`, "Message is required"},
		{"post-visit no message", "/chat/post-visit", `{"message":"  "}`, "Message is required"},
		{"no symptoms", "/summarize/symptoms", `{"symptoms":[]}`, "No symptoms provided"},
		{"severity out of range", "/summarize/symptoms", `{"symptoms":[{"symptom":"x","severity":11}]}`, "Value is too large"},
		{"blank text", "/summarize/text", `{"text":"   "}`, "No text provided"},
		{"blank process text", "/process/text", `{"text":""}`, "No text could be extracted from the document"},
		{"blank cleanup", "/process/cleanup", `{}`, "No text provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var body httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	big := `{"text":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/summarize/text", bytes.NewBufferString(big))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(t, completion.NewClient(completion.Config{}))

	do(engine, http.MethodPost, "/chat", `{"message":"hi"}`)
	w := do(engine, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `careprep_ai_assistant_responses_total{operation="chat",source="fallback"} 1`)
	assert.Contains(t, w.Body.String(), `careprep_http_requests_total{method="POST",path="/chat",status="200"} 1`)
}
