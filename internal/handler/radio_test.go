package handler_test

import (
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/airadio/api/internal/model"
)

const validGenerateBody = `{
	"artist_name": "Nova",
	"enable_dj_transitions": true,
	"dj_options": {"style": "energetic", "length": "short"}
}`

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func submit(t *testing.T, ta *testApp) string {
	t.Helper()
	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/generate", validGenerateBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	result := parseJSON(t, resp)
	id, _ := result["task_id"].(string)
	if id == "" {
		t.Fatalf("expected task_id in response, got %v", result)
	}
	return id
}

func TestGenerate_Success(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/generate", validGenerateBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["status"] != string(model.JobStatusPending) {
		t.Errorf("expected status 'pending', got %v", result["status"])
	}
	id, _ := result["task_id"].(string)
	if result["log_file"] != "task_"+id+".log" {
		t.Errorf("unexpected log_file %v", result["log_file"])
	}
}

func TestGenerate_NotInitialized(t *testing.T) {
	ta := setupApp(t, false)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/generate", validGenerateBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusServiceUnavailable)
	assertErrorCode(t, parseJSON(t, resp), "NOT_INITIALIZED")
}

func TestGenerate_Validation(t *testing.T) {
	ta := setupApp(t, true)

	cases := map[string]string{
		"missing artist": `{"enable_dj_transitions": false}`,
		"bad style":      `{"artist_name": "Nova", "dj_options": {"style": "loud"}}`,
		"bad speed":      `{"artist_name": "Nova", "dj_options": {"speed": 3}}`,
		"not json":       `artist=Nova`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/generate", body)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assertStatus(t, resp, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, resp), "VALIDATION_ERROR")
		})
	}
}

func TestStatus_NotFound(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/radio/status/does-not-exist", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
	assertErrorCode(t, parseJSON(t, resp), "NOT_FOUND")
}

func TestStatus_Processing(t *testing.T) {
	ta := setupApp(t, true)
	id := submit(t, ta)
	waitStatus(t, ta.registry, id, model.JobStatusProcessing)
	for i := 0; i < 500; i++ {
		if v, _ := ta.registry.Status(id); v.CurrentStep != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := doRequest(ta.app, http.MethodGet, "/api/radio/status/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["status"] != string(model.JobStatusProcessing) {
		t.Errorf("expected processing, got %v", result["status"])
	}
	if result["current_step"] != string(model.StageScriptGeneration) {
		t.Errorf("expected current_step script_generation, got %v", result["current_step"])
	}
}

func TestStatus_FromArchive(t *testing.T) {
	ta := setupApp(t, true)
	msg := "audio_generation failed: job canceled"
	ta.archive.jobs["before-restart"] = model.JobView{
		ID:       "before-restart",
		Kind:     model.JobKindGenerateRadio,
		Status:   model.JobStatusFailed,
		Progress: 55,
		Error:    &msg,
	}

	resp, err := doRequest(ta.app, http.MethodGet, "/api/radio/status/before-restart", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["status"] != string(model.JobStatusFailed) || result["error"] != msg {
		t.Errorf("unexpected archived view %v", result)
	}

	resp, err = doRequest(ta.app, http.MethodGet, "/api/radio/result/before-restart", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, resp), "JOB_FAILED")
}

func TestResult_NotReady(t *testing.T) {
	ta := setupApp(t, true)
	id := submit(t, ta)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/radio/result/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, resp), "JOB_NOT_READY")
}

func TestResultAndDownload_Completed(t *testing.T) {
	ta := setupApp(t, true)
	id := submit(t, ta)
	close(ta.release)
	waitStatus(t, ta.registry, id, model.JobStatusCompleted)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/radio/result/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["status"] != string(model.JobStatusCompleted) {
		t.Errorf("expected completed, got %v", result["status"])
	}

	resp, err = doRequest(ta.app, http.MethodGet, "/api/radio/download/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "show" {
		t.Errorf("unexpected download body %q", body)
	}

	resp, err = doRequest(ta.app, http.MethodGet, "/api/radio/logs/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	logs, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(logs), "task completed successfully") {
		t.Errorf("expected completion in job log, got %s", logs)
	}
}

func TestCancel_ProcessingJob(t *testing.T) {
	ta := setupApp(t, true)
	id := submit(t, ta)
	waitStatus(t, ta.registry, id, model.JobStatusProcessing)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/cancel/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	view := waitStatus(t, ta.registry, id, model.JobStatusFailed)
	if view.Error == nil {
		t.Fatal("expected error on canceled job")
	}

	resp, err = doRequest(ta.app, http.MethodGet, "/api/radio/result/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, resp), "JOB_FAILED")

	resp, err = doRequest(ta.app, http.MethodPost, "/api/radio/cancel/"+id, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, resp), "JOB_FINISHED")
}

func TestCancel_PendingJob(t *testing.T) {
	ta := setupApp(t, true)
	first := submit(t, ta)
	waitStatus(t, ta.registry, first, model.JobStatusProcessing)
	second := submit(t, ta)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/cancel/"+second, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)
	if result["status"] != string(model.JobStatusFailed) {
		t.Errorf("expected pending job to fail at once, got %v", result["status"])
	}
}

func TestCancel_NotFound(t *testing.T) {
	ta := setupApp(t, true)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/radio/cancel/missing", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}
