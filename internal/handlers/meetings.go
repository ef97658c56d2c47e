package handlers

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
)

// MeetingsHandler serves the history of completed meetings
type MeetingsHandler struct {
	history storage.History
}

// NewMeetingsHandler creates a handler backed by history
func NewMeetingsHandler(history storage.History) *MeetingsHandler {
	return &MeetingsHandler{history: history}
}

// Register mounts the meeting routes on r
func (h *MeetingsHandler) Register(r fiber.Router) {
	r.Get("/meetings", h.List)
	r.Get("/meetings/:id", h.Get)
	r.Get("/meetings/:id/notes", h.Notes)
	r.Delete("/meetings/:id", h.Delete)
}

// List returns recent meetings, or matches for ?q=
func (h *MeetingsHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		records []storage.MeetingRecord
		err     error
	)
	if q := c.Query("q"); q != "" {
		records, err = h.history.SearchMeetings(c.UserContext(), q, limit)
	} else {
		records, err = h.history.ListMeetings(c.UserContext(), limit)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(records)
}

// Get returns one meeting record
func (h *MeetingsHandler) Get(c *fiber.Ctx) error {
	rec, err := h.history.GetMeeting(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

// Notes returns the meeting notes markdown
func (h *MeetingsHandler) Notes(c *fiber.Ctx) error {
	rec, err := h.history.GetMeeting(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	if rec.LocalPath == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Meeting notes file path not found",
			"code":  "ERR_NO_NOTES",
		})
	}
	content, err := os.ReadFile(rec.LocalPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read meeting notes",
			"code":  "ERR_READ_FAILED",
		})
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.Send(content)
}

// Delete removes a meeting from history. Notes on disk are kept.
func (h *MeetingsHandler) Delete(c *fiber.Ctx) error {
	if err := h.history.DeleteMeeting(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
