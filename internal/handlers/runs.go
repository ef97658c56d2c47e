package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/pipeline"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// RunsHandler drives runs: recording, clarification and cancellation
type RunsHandler struct {
	pipeline Pipeline
}

// NewRunsHandler creates a handler for the /runs routes
func NewRunsHandler(p Pipeline) *RunsHandler {
	return &RunsHandler{pipeline: p}
}

// Register mounts the run routes on r
func (h *RunsHandler) Register(r fiber.Router) {
	r.Post("/runs", h.Start)
	r.Get("/runs", h.List)
	r.Get("/runs/:id", h.Get)
	r.Post("/runs/:id/stop", h.Stop)
	r.Post("/runs/:id/cancel", h.Cancel)
	r.Post("/runs/:id/questions/skip-all", h.SkipAll)
	r.Post("/runs/:id/questions/:qid/answer", h.Answer)
	r.Post("/runs/:id/questions/:qid/skip", h.Skip)
	r.Get("/runs/:id/questions/:qid/snippet", h.Snippet)
	r.Post("/runs/:id/qa/complete", h.CompleteQA)
	r.Post("/runs/:id/speakers/rename", h.RenameSpeaker)
	r.Get("/templates", ListTemplates)
}

// ListTemplates lists the meeting templates a run can use
func ListTemplates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": templates.All()})
}

// StartRequest starts a recording run
type StartRequest struct {
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	Template string `json:"template"`
}

// Start begins recording from the server's audio device
func (h *RunsHandler) Start(c *fiber.Ctx) error {
	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body", "ERR_INVALID_BODY")
		}
	}
	mode, err := qa.ParseMode(req.Mode)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_MODE")
	}
	tmpl, err := templates.Parse(req.Template)
	if err != nil {
		return badRequest(c, err.Error(), "ERR_INVALID_TEMPLATE")
	}

	id, err := h.pipeline.StartRun(c.UserContext(), pipeline.RunConfig{
		Name:     req.Name,
		Source:   types.SourceRecording,
		Mode:     mode,
		Template: tmpl,
	})
	if err != nil {
		if id != "" {
			status, code := classify(err)
			return c.Status(status).JSON(fiber.Map{"run_id": id, "error": err.Error(), "code": code})
		}
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"run_id": id,
		"state":  pipeline.Recording,
	})
}

// List returns every run the server knows about, oldest first
func (h *RunsHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.pipeline.Runs())
}

// Get returns one run
func (h *RunsHandler) Get(c *fiber.Ctx) error {
	snap, err := h.pipeline.State(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(snap)
}

// Stop ends the recording and queues the audio for processing
func (h *RunsHandler) Stop(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.pipeline.StopRecording(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// Cancel aborts a run
func (h *RunsHandler) Cancel(c *fiber.Ctx) error {
	if err := h.pipeline.Cancel(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// AnswerRequest carries the user's answer to a question
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// Answer records an answer
func (h *RunsHandler) Answer(c *fiber.Ctx) error {
	var req AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", "ERR_INVALID_BODY")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return badRequest(c, "Answer is required", "ERR_NO_ANSWER")
	}
	if err := h.pipeline.SubmitAnswer(c.Params("id"), c.Params("qid"), req.Answer); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// Skip marks one question as skipped
func (h *RunsHandler) Skip(c *fiber.Ctx) error {
	if err := h.pipeline.SkipQuestion(c.Params("id"), c.Params("qid")); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// SkipAll skips every open question
func (h *RunsHandler) SkipAll(c *fiber.Ctx) error {
	if err := h.pipeline.SkipAllQuestions(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// CompleteQA finishes clarification and starts summarization
func (h *RunsHandler) CompleteQA(c *fiber.Ctx) error {
	if err := h.pipeline.CompleteQA(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// RenameRequest relabels a speaker
type RenameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenameSpeaker relabels a speaker in the run's transcript
func (h *RunsHandler) RenameSpeaker(c *fiber.Ctx) error {
	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", "ERR_INVALID_BODY")
	}
	if req.From == "" || strings.TrimSpace(req.To) == "" {
		return badRequest(c, "from and to are required", "ERR_INVALID_SPEAKER")
	}
	if err := h.pipeline.RenameSpeaker(c.Params("id"), req.From, strings.TrimSpace(req.To)); err != nil {
		return fail(c, err)
	}
	return h.Get(c)
}

// Snippet streams the audio sample attached to a question as WAV
func (h *RunsHandler) Snippet(c *fiber.Ctx) error {
	wav, err := h.pipeline.Snippet(c.UserContext(), c.Params("id"), c.Params("qid"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(wav)
}
