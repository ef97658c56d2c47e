// Package pipeline sequences a meeting from audio to summary: capture,
// transcription and diarization, alignment, clarification and summarization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/align"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/events"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/queue"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrRecordingActive   = errors.New("a recording is already in progress")
	ErrNoAudioSource     = errors.New("no audio source configured")
	ErrNoSession         = errors.New("run is not awaiting clarification")
	ErrQANotComplete     = errors.New("clarification session is not complete")
	ErrNoSnippet         = errors.New("question has no audio sample")
	ErrRunEnded          = errors.New("run ended in another state")
)

// Options wires the controller to its collaborators
type Options struct {
	Source      AudioSource
	Transcriber Transcriber
	Diarizer    Diarizer
	Summarizer  Summarizer
	Snippets    SnippetProvider
	Sinks       []Sink

	Bus      *events.Bus
	Pool     *queue.WorkerPool
	Detector *qa.Detector
	Limits   qa.Limits

	DefaultMode qa.Mode
	// DefaultTemplate applies to runs that do not name one. Empty means
	// general.
	DefaultTemplate templates.MeetingType
	Retry           RetryPolicy
	// AutoSkipAfter skips all remaining questions when the user has not
	// acted for this long. Zero waits forever.
	AutoSkipAfter time.Duration
}

// Controller owns every meeting run. Runs are independent; only the audio
// source is shared and at most one run records at a time.
type Controller struct {
	opts Options
	bus  *events.Bus

	mu        sync.RWMutex
	runs      map[string]*Run
	recording string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a controller. Transcriber, Diarizer and Summarizer are required.
func New(opts Options) (*Controller, error) {
	if opts.Transcriber == nil || opts.Diarizer == nil || opts.Summarizer == nil {
		return nil, errors.New("pipeline: transcriber, diarizer and summarizer are required")
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Detector == nil {
		opts.Detector = qa.NewDetector()
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = qa.Quick
	}
	if opts.DefaultTemplate == "" {
		opts.DefaultTemplate = templates.General
	}
	if opts.Retry.Backoff == nil && opts.Retry.MaxRetries == 0 {
		opts.Retry = DefaultRetry
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		opts:   opts,
		bus:    opts.Bus,
		runs:   make(map[string]*Run),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Bus returns the bus the controller publishes on
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// Subscribe registers handler for controller events
func (c *Controller) Subscribe(handler events.Handler, filter ...events.EventType) *events.Subscription {
	return c.bus.Subscribe(handler, filter...)
}

// Close cancels every run still in flight. Those runs end Cancelled.
func (c *Controller) Close() {
	for _, run := range c.snapshotRuns() {
		run.mu.Lock()
		if !run.state.Terminal() {
			c.cancelLocked(run)
		}
		run.stopAutoSkipLocked()
		run.mu.Unlock()
	}
	c.cancel()
}

// StartRun creates a run. With cfg.AudioPath set the file is queued for
// processing; otherwise recording starts on the audio source. A run that
// fails to start is kept in Failed state and its ID is returned with the error.
func (c *Controller) StartRun(ctx context.Context, cfg RunConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if cfg.Name == "" {
		cfg.Name = "meeting"
	}
	if cfg.Mode == "" {
		cfg.Mode = c.opts.DefaultMode
	}
	tmpl, err := templates.Parse(string(cfg.Template))
	if err != nil {
		return "", err
	}
	if tmpl == "" {
		tmpl = c.opts.DefaultTemplate
	}
	cfg.Template = tmpl
	if cfg.Source == "" {
		cfg.Source = types.SourceRecording
		if cfg.AudioPath != "" {
			cfg.Source = types.SourceFile
		}
	}

	if cfg.AudioPath == "" && c.opts.Source == nil {
		return "", ErrNoAudioSource
	}

	run := c.newRun(cfg)
	if cfg.AudioPath != "" {
		run.mu.Lock()
		run.audio = types.AudioRef{Path: cfg.AudioPath}
		err := c.transitionLocked(run, AwaitingProcessing)
		run.mu.Unlock()
		if err != nil {
			return run.id, err
		}
		c.schedule(run, run.id, c.process)
		return run.id, nil
	}

	c.mu.Lock()
	if c.recording != "" {
		c.mu.Unlock()
		c.forget(run.id)
		return "", ErrRecordingActive
	}
	c.recording = run.id
	c.mu.Unlock()

	handle, err := c.opts.Source.StartCapture(run.ctx)
	if err != nil {
		if !classified(err) {
			err = types.NewError(types.DeviceUnavailable, "start capture", err)
		}
		c.fail(run, Idle, err)
		return run.id, err
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	run.capture = &handle
	if err := c.transitionLocked(run, Recording); err != nil {
		// cancelled while the device was starting
		go c.opts.Source.StopCapture(context.Background(), handle)
		c.releaseRecording(run.id)
		return run.id, err
	}
	c.publish(run, events.RecordingStarted, map[string]any{"path": handle.Path})
	log.Printf("Run %s: recording to %s", run.id, handle.Path)
	return run.id, nil
}

// StopRecording fixes the recorded audio and queues it for processing.
func (c *Controller) StopRecording(ctx context.Context, runID string) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}

	run.mu.Lock()
	if run.state != Recording || run.capture == nil {
		state := run.state
		run.mu.Unlock()
		return fmt.Errorf("%w: cannot stop recording in state %s", ErrInvalidTransition, state)
	}
	handle := *run.capture
	run.mu.Unlock()

	ref, err := c.opts.Source.StopCapture(ctx, handle)
	c.releaseRecording(runID)
	if err != nil {
		if !classified(err) {
			err = types.NewError(types.IOError, "stop capture", err)
		}
		c.fail(run, Recording, err)
		return err
	}

	run.mu.Lock()
	run.audio = ref
	if err := c.transitionLocked(run, AwaitingProcessing); err != nil {
		run.mu.Unlock()
		return err
	}
	c.publish(run, events.RecordingStopped, map[string]any{
		"path":     ref.Path,
		"duration": time.Since(handle.StartedAt).Seconds(),
	})
	run.mu.Unlock()

	c.schedule(run, run.id, c.process)
	return nil
}

// State returns a snapshot of the run
func (c *Controller) State(runID string) (Snapshot, error) {
	run, err := c.get(runID)
	if err != nil {
		return Snapshot{}, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.snapshotLocked(), nil
}

// Runs returns snapshots of every run, oldest first
func (c *Controller) Runs() []Snapshot {
	runs := c.snapshotRuns()
	out := make([]Snapshot, 0, len(runs))
	for _, r := range runs {
		r.mu.Lock()
		out = append(out, r.snapshotLocked())
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Await blocks until the run reaches one of states. It fails with
// ErrRunEnded if the run terminates in a state not listed.
func (c *Controller) Await(ctx context.Context, runID string, states ...State) (Snapshot, error) {
	wake := make(chan struct{}, 1)
	sub := c.bus.Subscribe(func(e events.Event) {
		if e.RunID == runID {
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}, events.StateChanged)
	defer sub.Unsubscribe()

	for {
		snap, err := c.State(runID)
		if err != nil {
			return snap, err
		}
		for _, s := range states {
			if snap.State == s {
				return snap, nil
			}
		}
		if snap.State.Terminal() {
			return snap, fmt.Errorf("%w: %s", ErrRunEnded, snap.State)
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// SubmitAnswer answers a clarification question. Once no question is open
// the session completes and summarization starts.
func (c *Controller) SubmitAnswer(runID, questionID, text string) error {
	return c.updateSession(runID, questionID, func(s *qa.Session) error {
		return s.Answer(questionID, text)
	})
}

// SkipQuestion skips one clarification question
func (c *Controller) SkipQuestion(runID, questionID string) error {
	return c.updateSession(runID, questionID, func(s *qa.Session) error {
		return s.Skip(questionID)
	})
}

// SkipAllQuestions skips every open question and starts summarization.
func (c *Controller) SkipAllQuestions(runID string) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}

	run.mu.Lock()
	if run.state != AwaitingQA || run.session == nil {
		run.mu.Unlock()
		return ErrNoSession
	}
	if err := run.session.SkipAll(); err != nil {
		run.mu.Unlock()
		return err
	}
	progress := run.session.Progress()
	run.mu.Unlock()

	c.publish(run, events.QACompleted, map[string]any{"answered": progress.Answered, "skipped": progress.Skipped})
	return c.beginSummary(run)
}

// CompleteQA completes the clarification session and starts summarization.
// It fails with qa.ErrIncompleteSession while questions remain open.
func (c *Controller) CompleteQA(runID string) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}

	run.mu.Lock()
	if run.state != AwaitingQA || run.session == nil {
		run.mu.Unlock()
		return ErrNoSession
	}
	if err := run.session.Complete(); err != nil {
		run.mu.Unlock()
		return err
	}
	progress := run.session.Progress()
	run.mu.Unlock()

	c.publish(run, events.QACompleted, map[string]any{"answered": progress.Answered, "skipped": progress.Skipped})
	return c.beginSummary(run)
}

// Cancel stops a run that has not finished. Files already written are kept.
func (c *Controller) Cancel(runID string) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return c.cancelLocked(run)
}

// cancelLocked must be called with run.mu held.
func (c *Controller) cancelLocked(run *Run) error {
	if run.state == Cancelled {
		return nil
	}
	from := run.state
	if err := c.transitionLocked(run, Cancelled); err != nil {
		return err
	}
	run.stopAutoSkipLocked()
	c.publish(run, events.RunCancelled, map[string]any{"stage": string(from)})

	run.cancel()
	if from == Recording && run.capture != nil {
		// release the device; the partial recording stays on disk
		go func(id string, h types.CaptureHandle) {
			if _, err := c.opts.Source.StopCapture(context.Background(), h); err != nil {
				log.Printf("Run %s: stopping capture after cancel: %v", id, err)
			}
		}(run.id, *run.capture)
	}
	c.releaseRecording(run.id)
	log.Printf("Run %s: cancelled during %s", run.id, from)
	return nil
}

// RenameSpeaker relabels every segment spoken by from. It is allowed once a
// transcript exists and the run is waiting on the user or finished.
func (c *Controller) RenameSpeaker(runID, from, to string) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}
	if from == "" || to == "" {
		return errors.New("speaker labels must not be empty")
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	if run.transcript == nil || (run.state != AwaitingQA && run.state != Completed) {
		return fmt.Errorf("%w: cannot rename speakers in state %s", ErrInvalidTransition, run.state)
	}
	relabeled := run.transcript.Relabel(from, to)
	run.transcript = &relabeled
	if run.meeting != nil {
		run.meeting.Transcript = relabeled
	}
	run.updatedAt = time.Now()
	c.publish(run, events.SpeakerRenamed, map[string]any{"from": from, "to": to})
	return nil
}

// Snippet extracts the audio sample attached to a SpeakerIdentity question.
func (c *Controller) Snippet(ctx context.Context, runID, questionID string) ([]byte, error) {
	if c.opts.Snippets == nil {
		return nil, ErrNoSnippet
	}
	run, err := c.get(runID)
	if err != nil {
		return nil, err
	}

	run.mu.Lock()
	if run.session == nil {
		run.mu.Unlock()
		return nil, ErrNoSession
	}
	q, err := run.session.Question(questionID)
	audio := run.audio
	run.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if q.Sample == nil {
		return nil, ErrNoSnippet
	}
	return c.opts.Snippets.Extract(ctx, audio, *q.Sample)
}

func (c *Controller) updateSession(runID, questionID string, fn func(*qa.Session) error) error {
	run, err := c.get(runID)
	if err != nil {
		return err
	}

	run.mu.Lock()
	if run.state != AwaitingQA || run.session == nil {
		run.mu.Unlock()
		return ErrNoSession
	}
	if err := fn(run.session); err != nil {
		run.mu.Unlock()
		return err
	}
	q, _ := run.session.Question(questionID)
	progress := run.session.Progress()
	run.updatedAt = time.Now()
	c.armAutoSkipLocked(run)
	run.mu.Unlock()

	c.publish(run, events.QAQuestionUpdated, map[string]any{
		"question_id": q.ID,
		"status":      string(q.Status),
		"open":        progress.Open,
	})

	if progress.Open == 0 {
		if err := c.CompleteQA(runID); err != nil && !errors.Is(err, ErrNoSession) && !errors.Is(err, ErrInvalidTransition) {
			return err
		}
	}
	return nil
}

// process runs transcription and diarization concurrently, aligns the
// results and opens the clarification session.
func (c *Controller) process(run *Run) error {
	run.mu.Lock()
	audio := run.audio
	mode := run.cfg.Mode
	meetingType := run.meetingType
	run.mu.Unlock()
	ctx := run.ctx

	c.publish(run, events.ProcessingStarted, map[string]any{"path": audio.Path})

	var (
		result *types.TranscriptionResult
		turns  []types.SpeakerSegment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.publish(run, events.TranscriptionStarted, nil)
		r, err := withRetry(gctx, c.opts.Retry, func(ctx context.Context) (*types.TranscriptionResult, error) {
			return c.opts.Transcriber.Transcribe(ctx, audio)
		}, c.retryNotifier(run, "transcribe"))
		if err != nil {
			return fmt.Errorf("transcribe: %w", err)
		}
		result = r
		c.publish(run, events.TranscriptionCompleted, map[string]any{
			"segments": len(r.Segments),
			"language": r.Language,
		})
		return nil
	})
	g.Go(func() error {
		c.publish(run, events.DiarizationStarted, nil)
		t, err := withRetry(gctx, c.opts.Retry, func(ctx context.Context) ([]types.SpeakerSegment, error) {
			return c.opts.Diarizer.Diarize(ctx, audio)
		}, c.retryNotifier(run, "diarize"))
		if err != nil {
			return fmt.Errorf("diarize: %w", err)
		}
		turns = t
		c.publish(run, events.DiarizationCompleted, map[string]any{"turns": len(t)})
		return nil
	})
	if err := g.Wait(); err != nil {
		c.fail(run, AwaitingProcessing, err)
		return err
	}

	run.mu.Lock()
	err := c.transitionLocked(run, Aligning)
	run.mu.Unlock()
	if err != nil {
		return nil
	}

	transcript := types.NewTranscript(align.Align(turns, result.Segments), result.Language)
	if meetingType == templates.Auto {
		meetingType = templates.Detect(transcript)
	}
	c.publish(run, events.AlignmentCompleted, map[string]any{
		"segments":     len(transcript.Segments),
		"speakers":     transcript.Speakers,
		"meeting_type": string(meetingType),
	})

	questions := c.opts.Detector.Detect(transcript, qa.TemplateRule{Template: templates.Get(meetingType)})
	session := qa.NewSession(mode, questions, c.opts.Limits)

	run.mu.Lock()
	run.transcript = &transcript
	run.session = session
	run.meetingType = meetingType
	if audio.Duration == 0 {
		run.audio.Duration = result.Duration
	}
	if err := c.transitionLocked(run, AwaitingQA); err != nil {
		run.mu.Unlock()
		return nil
	}
	progress := session.Progress()
	if progress.Open > 0 {
		c.armAutoSkipLocked(run)
	}
	run.mu.Unlock()

	c.publish(run, events.QAStarted, map[string]any{"questions": progress.Total, "mode": string(mode)})
	log.Printf("Run %s: %d segments, %d speakers, %d questions", run.id,
		len(transcript.Segments), len(transcript.Speakers), progress.Total)

	if progress.Open == 0 {
		return c.CompleteQA(run.id)
	}
	return nil
}

// beginSummary queues summarization once the session is complete.
func (c *Controller) beginSummary(run *Run) error {
	run.mu.Lock()
	defer run.mu.Unlock()

	if run.state != AwaitingQA {
		return fmt.Errorf("%w: cannot summarize from %s", ErrInvalidTransition, run.state)
	}
	if run.session == nil || run.session.State() != qa.Completed {
		return ErrQANotComplete
	}
	if run.summaryScheduled {
		return nil
	}
	enhanced, err := run.session.BuildEnhancedContext()
	if err != nil {
		return err
	}
	enhanced.MeetingType = string(run.meetingType)
	run.enhanced = &enhanced
	run.summaryScheduled = true
	run.stopAutoSkipLocked()

	c.schedule(run, run.id+"-summary", c.summarize)
	return nil
}

// summarize checks the backend, produces the summary and hands the finished
// meeting to the sinks.
func (c *Controller) summarize(run *Run) error {
	ctx := run.ctx

	if err := c.opts.Summarizer.CheckAvailability(ctx); err != nil {
		if ctx.Err() != nil {
			c.fail(run, AwaitingQA, ctx.Err())
			return ctx.Err()
		}
		if types.KindOf(err) != types.ServiceUnavailable {
			err = types.NewError(types.ServiceUnavailable, "check summarizer", err)
		}
		c.fail(run, AwaitingQA, err)
		return err
	}

	run.mu.Lock()
	if err := c.transitionLocked(run, Summarizing); err != nil {
		run.mu.Unlock()
		return nil
	}
	transcript := *run.transcript
	enhanced := *run.enhanced
	run.mu.Unlock()

	c.publish(run, events.SummaryStarted, nil)
	summary, err := withRetry(ctx, c.opts.Retry, func(ctx context.Context) (*types.Summary, error) {
		return c.opts.Summarizer.Summarize(ctx, transcript, enhanced)
	}, c.retryNotifier(run, "summarize"))
	if err != nil {
		c.fail(run, Summarizing, fmt.Errorf("summarize: %w", err))
		return err
	}

	run.mu.Lock()
	meeting := &types.Meeting{
		ID:          run.id,
		Name:        run.cfg.Name,
		Source:      run.cfg.Source,
		MeetingType: string(run.meetingType),
		AudioPath:   run.audio.Path,
		Transcript:  transcript,
		Context:     enhanced,
		Summary:     *summary,
		CreatedAt:   run.createdAt,
		CompletedAt: time.Now(),
	}
	run.mu.Unlock()

	var sinkErrors []string
	for _, sink := range c.opts.Sinks {
		if err := sink.SaveMeeting(ctx, meeting); err != nil {
			log.Printf("Run %s: WARNING - saving meeting failed: %v", run.id, err)
			sinkErrors = append(sinkErrors, err.Error())
		}
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	if err := c.transitionLocked(run, Completed); err != nil {
		return nil
	}
	run.summary = summary
	run.meeting = meeting
	c.publish(run, events.SummaryCompleted, map[string]any{
		"action_items": len(summary.ActionItems),
		"decisions":    len(summary.Decisions),
	})
	c.publish(run, events.RunCompleted, map[string]any{
		"local_path":  meeting.LocalPath,
		"gdrive_url":  meeting.GDriveURL,
		"sink_errors": sinkErrors,
	})
	log.Printf("Run %s: completed (local: %s, gdrive: %s)", run.id, meeting.LocalPath, meeting.GDriveURL)
	return nil
}

// fail moves the run to Failed unless it already reached a terminal state.
// Errors caused by the run's own cancellation end it Cancelled instead.
func (c *Controller) fail(run *Run, stage State, err error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	if run.state.Terminal() {
		return
	}
	if errors.Is(err, context.Canceled) && run.ctx.Err() != nil {
		// the run's context went away under it (pool stopped); that is a
		// cancellation, not a failure
		c.cancelLocked(run)
		return
	}
	info := &ErrorInfo{Kind: types.KindOf(err), Message: err.Error(), Stage: stage}
	if terr := c.transitionLocked(run, Failed); terr != nil {
		log.Printf("Run %s: %v", run.id, terr)
		return
	}
	run.err = info
	run.stopAutoSkipLocked()
	c.releaseRecording(run.id)
	c.publish(run, events.RunFailed, map[string]any{
		"kind":    string(info.Kind),
		"message": info.Message,
		"stage":   string(stage),
	})
	log.Printf("Run %s: failed during %s (%s): %v", run.id, stage, info.Kind, err)
}

// schedule runs fn for run on the worker pool, or on its own goroutine when
// no pool is configured. A panic in fn fails the run.
func (c *Controller) schedule(run *Run, jobID string, fn func(*Run) error) {
	guarded := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Run %s: PANIC: %v\n%s", run.id, r, string(debug.Stack()))
				err = types.Errorf(types.Internal, "pipeline", "panic: %v", r)
				c.fail(run, c.stateOf(run), err)
			}
		}()
		return fn(run)
	}

	if c.opts.Pool == nil {
		go guarded()
		return
	}

	job := queue.NewJob(jobID, run.cfg.Name, run.cfg.Source, func(poolCtx context.Context) error {
		stop := context.AfterFunc(poolCtx, run.cancel)
		defer stop()
		return guarded()
	})
	if err := c.opts.Pool.EnqueueJob(job); err != nil {
		c.fail(run, c.stateOf(run), types.NewError(types.Internal, "enqueue", err))
	}
}

func (c *Controller) retryNotifier(run *Run, op string) func(int, error) {
	return func(attempt int, err error) {
		log.Printf("Run %s: %s attempt %d/%d failed: %v", run.id, op, attempt, c.opts.Retry.MaxRetries+1, err)
		c.publish(run, events.CollaboratorRetry, map[string]any{
			"operation": op,
			"attempt":   attempt,
			"error":     err.Error(),
		})
	}
}

func (c *Controller) armAutoSkipLocked(run *Run) {
	if c.opts.AutoSkipAfter <= 0 {
		return
	}
	run.stopAutoSkipLocked()
	id := run.id
	run.autoSkip = time.AfterFunc(c.opts.AutoSkipAfter, func() {
		log.Printf("Run %s: no answer for %s, skipping remaining questions", id, c.opts.AutoSkipAfter)
		if err := c.SkipAllQuestions(id); err != nil && !errors.Is(err, ErrNoSession) {
			log.Printf("Run %s: auto-skip failed: %v", id, err)
		}
	})
}

// transitionLocked must be called with run.mu held.
func (c *Controller) transitionLocked(run *Run, to State) error {
	from := run.state
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	run.state = to
	run.updatedAt = time.Now()
	c.bus.Publish(events.Event{
		Type:  events.StateChanged,
		RunID: run.id,
		State: string(to),
		Data:  map[string]any{"from": string(from)},
	})
	log.Printf("Run %s: %s -> %s", run.id, from, to)
	return nil
}

func (c *Controller) publish(run *Run, t events.EventType, data map[string]any) {
	e := events.New(t, run.id, data)
	c.bus.Publish(e)
}

func (c *Controller) newRun(cfg RunConfig) *Run {
	ctx, cancel := context.WithCancel(c.ctx)
	now := time.Now()
	run := &Run{
		id:        uuid.Must(uuid.NewV7()).String(),
		cfg:       cfg,
		state:     Idle,

		meetingType: cfg.Template,
		createdAt: now,
		updatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.mu.Lock()
	c.runs[run.id] = run
	c.mu.Unlock()
	return run
}

// snapshotRuns copies the run table so callers can lock runs without
// holding c.mu.
func (c *Controller) snapshotRuns() []*Run {
	c.mu.RLock()
	defer c.mu.RUnlock()
	runs := make([]*Run, 0, len(c.runs))
	for _, r := range c.runs {
		runs = append(runs, r)
	}
	return runs
}

func (c *Controller) forget(runID string) {
	c.mu.Lock()
	if run, ok := c.runs[runID]; ok {
		run.cancel()
		delete(c.runs, runID)
	}
	c.mu.Unlock()
}

func (c *Controller) get(runID string) (*Run, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	run, ok := c.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

func (c *Controller) stateOf(run *Run) State {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.state
}

func classified(err error) bool {
	var e *types.Error
	return errors.As(err, &e)
}

func (c *Controller) releaseRecording(runID string) {
	c.mu.Lock()
	if c.recording == runID {
		c.recording = ""
	}
	c.mu.Unlock()
}
