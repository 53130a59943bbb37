package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/handler"
	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/internal/task"
)

type fakeCatalog struct {
	songs map[string][]model.Song
}

func (f *fakeCatalog) Artists(context.Context) ([]string, error) {
	var out []string
	for name := range f.songs {
		out = append(out, name)
	}
	return out, nil
}

func (f *fakeCatalog) SongsForArtist(_ context.Context, artist string) ([]model.Song, error) {
	return f.songs[strings.ToLower(artist)], nil
}

type fakeArchive struct {
	jobs map[string]model.JobView
}

func (a *fakeArchive) Load(_ context.Context, id string) (model.JobView, error) {
	view, ok := a.jobs[id]
	if !ok {
		return model.JobView{}, task.ErrJobNotFound
	}
	return view, nil
}

// testApp holds the app and the pieces a test may drive directly
type testApp struct {
	app      *fiber.App
	registry *task.Registry
	archive  *fakeArchive
	release  chan struct{}
}

// setupApp builds the routes the way main.go does. Jobs run a handler
// that blocks until release is closed, then writes a small output file.
// Pass attach=false to leave the worker detached.
func setupApp(t *testing.T, attach bool) *testApp {
	t.Helper()

	logDir := t.TempDir()
	outDir := t.TempDir()
	registry := task.NewRegistry(task.NewMemoryQueue(), task.RegistryOptions{
		LogDir: logDir,
		Logger: zerolog.Nop(),
	})
	release := make(chan struct{})

	worker := task.NewWorker(registry, 10*time.Millisecond, zerolog.Nop())
	worker.Handle(model.JobKindGenerateRadio, task.HandlerFunc(func(ctx context.Context, exec *task.Execution) error {
		exec.Report(model.StageScriptGeneration, 2, "writing script")
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		path := outDir + "/" + exec.JobID + ".mp3"
		if err := writeFile(path, "show"); err != nil {
			return err
		}
		exec.Record(func(r *model.JobResult) { r.OutputFile = path })
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		worker.Wait()
	})
	if attach {
		worker.Attach(ctx)
	}

	archive := &fakeArchive{jobs: map[string]model.JobView{}}
	validate := validator.New()
	radioHandler := handler.NewRadioHandler(registry, archive, validate)
	artistHandler := handler.NewArtistHandler(&fakeCatalog{songs: map[string][]model.Song{
		"nova": {
			{Name: "Alpha", Artist: "Nova", Path: "/music/Nova/Alpha.mp3"},
			{Name: "Beta", Artist: "Nova", Path: "/music/Nova/Beta.mp3"},
		},
	}})

	app := fiber.New()
	api := app.Group("/api")
	radio := api.Group("/radio")
	radio.Post("/generate", radioHandler.Generate)
	radio.Get("/status/:taskId", radioHandler.Status)
	radio.Get("/result/:taskId", radioHandler.Result)
	radio.Get("/download/:taskId", radioHandler.Download)
	radio.Get("/logs/:taskId", radioHandler.Logs)
	radio.Post("/cancel/:taskId", radioHandler.Cancel)
	api.Get("/artists", artistHandler.List)
	api.Get("/artists/:name/songs", artistHandler.Songs)

	return &testApp{app: app, registry: registry, archive: archive, release: release}
}

func doRequest(app *fiber.App, method, path, body string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return app.Test(req, 5000)
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, string(body))
	}
	return result
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d\nbody: %s", expected, resp.StatusCode, string(body))
	}
}

func assertErrorCode(t *testing.T, result map[string]interface{}, expectedCode string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'error' object in response, got: %v", result)
	}
	if errObj["code"] != expectedCode {
		t.Errorf("expected error code '%s', got '%v'", expectedCode, errObj["code"])
	}
}

// waitStatus polls the registry until the job reaches want.
func waitStatus(t *testing.T, reg *task.Registry, id string, want model.JobStatus) model.JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := reg.Status(id); ok && v.Status == want {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return model.JobView{}
}
