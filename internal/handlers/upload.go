package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/transcription"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// UploadHandler handles file uploads
type UploadHandler struct {
	pipeline Pipeline
	dir      string
	limits   Limits
}

// NewUploadHandler creates a new upload handler saving files into dir
func NewUploadHandler(p Pipeline, dir string, limits Limits) *UploadHandler {
	return &UploadHandler{
		pipeline: p,
		dir:      dir,
		limits:   limits,
	}
}

// Handle saves the uploaded audio and starts a run for it
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded", "ERR_NO_FILE")
	}

	name := c.FormValue("name")
	if name == "" {
		name = "untitled"
	}
	mode, err := qa.ParseMode(c.FormValue("mode"))
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_MODE")
	}
	tmpl, err := templates.Parse(c.FormValue("template"))
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_TEMPLATE")
	}

	maxSize := int64(h.limits.MaxSizeMB) * 1024 * 1024
	if maxSize > 0 && file.Size > maxSize {
		return badRequest(c, fmt.Sprintf("File too large (max %dMB)", h.limits.MaxSizeMB), "ERR_FILE_TOO_LARGE")
	}
	if !transcription.ValidateAudioFormat(file.Filename) {
		return badRequest(c, "Unsupported audio format", "ERR_INVALID_FORMAT")
	}

	path := filepath.Join(h.dir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}
	if !h.limits.checkDuration(c, path) {
		os.Remove(path)
		return nil
	}

	id, err := h.pipeline.StartRun(c.UserContext(), pipeline.RunConfig{
		Name:      name,
		AudioPath: path,
		Source:    types.SourceUpload,
		Mode:      mode,
		Template:  tmpl,
	})
	if err != nil {
		os.Remove(path)
		return fail(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"run_id":  id,
		"state":   pipeline.AwaitingProcessing,
		"message": "File uploaded successfully, processing started",
	})
}
