package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Downloader copies a Drive file's content into w
type Downloader func(ctx context.Context, fileID string, w io.Writer) (int64, error)

// GDriveHandler imports meeting audio from a Google Drive link
type GDriveHandler struct {
	pipeline Pipeline
	dir      string
	download Downloader
	limits   Limits
}

// NewGDriveHandler creates a new Google Drive handler. A nil download
// fetches link-shared files without credentials.
func NewGDriveHandler(p Pipeline, dir string, download Downloader, limits Limits) *GDriveHandler {
	if download == nil {
		download = func(ctx context.Context, fileID string, w io.Writer) (int64, error) {
			return storage.DownloadPublic(ctx, nil, fileID, w)
		}
	}
	return &GDriveHandler{pipeline: p, dir: dir, download: download, limits: limits}
}

// GDriveRequest represents the request body
type GDriveRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	Template string `json:"template"`
}

// Handle downloads the linked file and starts a run for it
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", "ERR_INVALID_BODY")
	}
	if req.URL == "" {
		return badRequest(c, "URL is required", "ERR_NO_URL")
	}
	fileID := storage.ExtractFileID(req.URL)
	if fileID == "" {
		return badRequest(c, "Invalid Google Drive URL", "ERR_INVALID_URL")
	}
	mode, err := qa.ParseMode(req.Mode)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_MODE")
	}
	tmpl, err := templates.Parse(req.Template)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_TEMPLATE")
	}
	if req.Name == "" {
		req.Name = "gdrive_file"
	}

	path := filepath.Join(h.dir, uuid.New().String()+".audio")
	log.Printf("Downloading from Google Drive: %s", fileID)
	if err := h.fetch(c.UserContext(), fileID, path); err != nil {
		log.Printf("Failed to download from Google Drive: %v", err)
		os.Remove(path)
		var perr *types.Error
		if errors.As(err, &perr) && perr.Kind == types.IOError {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "File not accessible (may be private or doesn't exist)",
				"code":  "ERR_FILE_NOT_ACCESSIBLE",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to download file from Google Drive",
			"code":  "ERR_DOWNLOAD_FAILED",
		})
	}
	if !h.limits.checkDuration(c, path) {
		os.Remove(path)
		return nil
	}

	id, err := h.pipeline.StartRun(c.UserContext(), pipeline.RunConfig{
		Name:      req.Name,
		AudioPath: path,
		Source:    types.SourceGDrive,
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
		"message": "Google Drive file downloaded, processing started",
	})
}

func (h *GDriveHandler) fetch(ctx context.Context, fileID, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := h.download(ctx, fileID, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return types.Errorf(types.IOError, "gdrive download", "file %s is empty", fileID)
	}
	return nil
}
