package handler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/internal/task"
	"github.com/airadio/api/pkg/response"
)

// JobArchive holds snapshots of jobs the registry no longer knows, such
// as jobs from before a restart.
type JobArchive interface {
	Load(ctx context.Context, id string) (model.JobView, error)
}

type RadioHandler struct {
	registry  *task.Registry
	archive   JobArchive
	validator *validator.Validate
}

// NewRadioHandler creates the job API handler. archive may be nil.
func NewRadioHandler(registry *task.Registry, archive JobArchive, v *validator.Validate) *RadioHandler {
	return &RadioHandler{
		registry:  registry,
		archive:   archive,
		validator: v,
	}
}

// lookup finds a job in the registry first, then in the archive.
func (h *RadioHandler) lookup(ctx context.Context, id string) (model.JobView, bool, error) {
	if view, ok := h.registry.Status(id); ok {
		return view, true, nil
	}
	if h.archive == nil {
		return model.JobView{}, false, nil
	}
	view, err := h.archive.Load(ctx, id)
	if errors.Is(err, task.ErrJobNotFound) {
		return model.JobView{}, false, nil
	}
	if err != nil {
		return model.JobView{}, false, err
	}
	return view, true, nil
}

// resultResponse is the body of GET /api/radio/result/:taskId
type resultResponse struct {
	TaskID string           `json:"task_id"`
	Status model.JobStatus  `json:"status"`
	Result *model.JobResult `json:"result"`
}

// Generate handles POST /api/radio/generate
func (h *RadioHandler) Generate(c *fiber.Ctx) error {
	var req model.RadioParams
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	receipt, err := h.registry.Submit(c.Context(), model.JobKindGenerateRadio, req)
	if err != nil {
		if errors.Is(err, task.ErrNotInitialized) {
			return response.NotInitialized(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, receipt)
}

// Status handles GET /api/radio/status/:taskId
func (h *RadioHandler) Status(c *fiber.Ctx) error {
	view, ok, err := h.lookup(c.Context(), c.Params("taskId"))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if !ok {
		return response.NotFound(c, "Task not found")
	}
	return response.OK(c, view)
}

// Result handles GET /api/radio/result/:taskId
func (h *RadioHandler) Result(c *fiber.Ctx) error {
	view, ok, err := h.lookup(c.Context(), c.Params("taskId"))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if !ok {
		return response.NotFound(c, "Task not found")
	}

	switch view.Status {
	case model.JobStatusCompleted:
		return response.OK(c, resultResponse{TaskID: view.ID, Status: view.Status, Result: view.Result})
	case model.JobStatusFailed:
		msg := "Task failed"
		if view.Error != nil {
			msg = *view.Error
		}
		return response.JobFailed(c, msg)
	default:
		return response.JobNotReady(c, "Task is not completed yet")
	}
}

// Download handles GET /api/radio/download/:taskId
func (h *RadioHandler) Download(c *fiber.Ctx) error {
	view, ok, err := h.lookup(c.Context(), c.Params("taskId"))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if !ok {
		return response.NotFound(c, "Task not found")
	}
	if view.Status != model.JobStatusCompleted || view.OutputFile == nil {
		return response.JobNotReady(c, "Task has no output yet")
	}

	path := *view.OutputFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return response.NotFound(c, "Output file no longer exists")
	}
	return c.Download(path, filepath.Base(path))
}

// Logs handles GET /api/radio/logs/:taskId
func (h *RadioHandler) Logs(c *fiber.Ctx) error {
	id := c.Params("taskId")
	if _, ok := h.registry.Status(id); !ok {
		return response.NotFound(c, "Task not found")
	}

	data, err := task.ReadJobLog(h.registry.LogDir(), id)
	if errors.Is(err, fs.ErrNotExist) {
		// Pending jobs have not opened their log yet.
		data = nil
	} else if err != nil {
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	return c.Send(data)
}

// Cancel handles POST /api/radio/cancel/:taskId
func (h *RadioHandler) Cancel(c *fiber.Ctx) error {
	receipt, err := h.registry.Cancel(c.Params("taskId"))
	switch {
	case errors.Is(err, task.ErrJobNotFound):
		return response.NotFound(c, "Task not found")
	case errors.Is(err, task.ErrJobFinished):
		return response.JobFinished(c, err.Error())
	case err != nil:
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, receipt)
}
