package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/app"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/config"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/handlers"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/storage"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/transcription"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/version"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file (.yaml or .toml)")
	flag.Parse()

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logBuffer))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Initializing components...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()
	a.Start(ctx, true)

	if err := a.Summarizer.CheckAvailability(ctx); err != nil {
		log.Printf("WARNING: %v", err)
		log.Println("Runs will fail at the summary step until Ollama is reachable")
	}

	srv := newServer(a, logBuffer)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Server starting on %s", addr)
	log.Println("📝 Endpoints:")
	log.Println("   POST /runs                          - Start recording")
	log.Println("   POST /upload                        - Upload audio file")
	log.Println("   POST /gdrive                        - Process Google Drive link")
	log.Println("   GET  /runs, /runs/:id               - Run status")
	log.Println("   POST /runs/:id/stop|cancel          - Stop recording / cancel run")
	log.Println("   POST /runs/:id/questions/:qid/...   - Answer or skip questions")
	log.Println("   GET  /meetings                      - Meeting history")
	log.Println("   GET  /ws/events                     - WebSocket event stream")
	log.Println("   GET  /logs                          - View server logs")
	log.Println("   GET  /health                        - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		srv.Shutdown()
	}()

	if err := srv.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newServer(a *app.App, logBuffer *LogBuffer) *fiber.App {
	srv := fiber.New(fiber.Config{
		BodyLimit: a.Config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	srv.Use(recover.New())
	srv.Use(logger.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	var download handlers.Downloader
	if a.Drive != nil {
		download = a.Drive.Download
	} else {
		download = func(ctx context.Context, fileID string, w io.Writer) (int64, error) {
			return storage.DownloadPublic(ctx, nil, fileID, w)
		}
	}

	limits := handlers.Limits{
		MaxSizeMB:   a.Config.Limits.MaxFileSizeMB,
		MaxDuration: time.Duration(a.Config.Limits.MaxDurationMinutes) * time.Minute,
		Measure:     transcription.AudioDuration,
	}

	handlers.NewRunsHandler(a.Controller).Register(srv)
	handlers.NewMeetingsHandler(a.History).Register(srv)
	srv.Post("/upload", handlers.NewUploadHandler(a.Controller, app.UploadDir(a.Config), limits).Handle)
	srv.Post("/gdrive", handlers.NewGDriveHandler(a.Controller, app.UploadDir(a.Config), download, limits).Handle)

	srv.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	srv.Get("/ws/events", websocket.New(handlers.NewStreamHandler(a.Controller).Handle))

	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version.Version,
			"pending": a.Pool.Pending(),
		})
	})

	srv.Get("/jobs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"jobs": a.Pool.Jobs(),
		})
	})

	srv.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})
	return srv
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
