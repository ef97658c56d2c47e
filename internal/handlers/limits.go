package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DurationFunc returns the length of an audio file in seconds
type DurationFunc func(ctx context.Context, path string) (float64, error)

// Limits bounds the audio the import routes accept. A nil Measure skips the
// duration check.
type Limits struct {
	MaxSizeMB   int
	MaxDuration time.Duration
	Measure     DurationFunc
}

// checkDuration writes a 400 response and returns false when the file is
// too long. Files that cannot be measured are let through; the pipeline
// reports unreadable audio itself.
func (l Limits) checkDuration(c *fiber.Ctx, path string) bool {
	if l.Measure == nil || l.MaxDuration <= 0 {
		return true
	}
	secs, err := l.Measure(c.UserContext(), path)
	if err != nil {
		log.Printf("Could not measure %s: %v", path, err)
		return true
	}
	if time.Duration(secs*float64(time.Second)) > l.MaxDuration {
		badRequest(c, fmt.Sprintf("Audio too long (max %s)", l.MaxDuration), "ERR_AUDIO_TOO_LONG")
		return false
	}
	return true
}
