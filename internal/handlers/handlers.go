// Package handlers exposes the meeting pipeline over HTTP and WebSocket.
package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Pipeline is the part of the pipeline controller the API drives
type Pipeline interface {
	StartRun(ctx context.Context, cfg pipeline.RunConfig) (string, error)
	StopRecording(ctx context.Context, runID string) error
	State(runID string) (pipeline.Snapshot, error)
	Runs() []pipeline.Snapshot
	SubmitAnswer(runID, questionID, text string) error
	SkipQuestion(runID, questionID string) error
	SkipAllQuestions(runID string) error
	CompleteQA(runID string) error
	Cancel(runID string) error
	RenameSpeaker(runID, from, to string) error
	Snippet(ctx context.Context, runID, questionID string) ([]byte, error)
	Subscribe(handler events.Handler, filter ...events.EventType) *events.Subscription
}

// fail writes err as {"error", "code"} with a matching status
func fail(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrRunNotFound):
		return fiber.StatusNotFound, "ERR_RUN_NOT_FOUND"
	case errors.Is(err, qa.ErrNotFound):
		return fiber.StatusNotFound, "ERR_QUESTION_NOT_FOUND"
	case errors.Is(err, pipeline.ErrNoSnippet):
		return fiber.StatusNotFound, "ERR_NO_SNIPPET"
	case errors.Is(err, storage.ErrMeetingNotFound):
		return fiber.StatusNotFound, "ERR_MEETING_NOT_FOUND"
	case errors.Is(err, pipeline.ErrRecordingActive):
		return fiber.StatusConflict, "ERR_RECORDING_ACTIVE"
	case errors.Is(err, pipeline.ErrInvalidTransition),
		errors.Is(err, pipeline.ErrNoSession),
		errors.Is(err, pipeline.ErrQANotComplete),
		errors.Is(err, qa.ErrInvalidState),
		errors.Is(err, qa.ErrIncompleteSession):
		return fiber.StatusConflict, "ERR_INVALID_STATE"
	case errors.Is(err, templates.ErrUnknown):
		return fiber.StatusBadRequest, "ERR_INVALID_TEMPLATE"
	case errors.Is(err, pipeline.ErrNoAudioSource):
		return fiber.StatusServiceUnavailable, "ERR_NO_AUDIO_SOURCE"
	}

	var perr *types.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case types.DeviceUnavailable:
			return fiber.StatusServiceUnavailable, "ERR_DEVICE_UNAVAILABLE"
		case types.ServiceUnavailable:
			return fiber.StatusServiceUnavailable, "ERR_SERVICE_UNAVAILABLE"
		case types.IOError:
			return fiber.StatusInternalServerError, "ERR_IO"
		case types.ModelError:
			return fiber.StatusBadGateway, "ERR_MODEL"
		}
	}
	return fiber.StatusInternalServerError, "ERR_INTERNAL"
}

func badRequest(c *fiber.Ctx, msg, code string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}
