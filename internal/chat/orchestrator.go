package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsemaps/pulsemap/internal/geo"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/observability"
	"github.com/pulsemaps/pulsemap/internal/reveal"
	"github.com/pulsemaps/pulsemap/internal/selection"
)

// ToolAddReport is the identifier the assistant returns after creating a
// user report. It is the one signal that flows from chat back into the map
// data.
const ToolAddReport = "add_report"

const (
	fallbackReply = "Something went wrong."
	emptyReply    = "(no reply)"
)

// ErrTurnInProgress is returned when Send is called while a previous turn
// is still sending, awaiting its reply, or revealing. Overlapping turns
// would race on the mutable tail of the message log, so they are an
// explicit illegal state rather than a queue.
var ErrTurnInProgress = fmt.Errorf("chat turn already in progress")

// Sender posts one chat turn and returns the reply.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// ReportInvalidator re-pulls the report feed after the assistant created a
// report.
type ReportInvalidator interface {
	RefetchReports(ctx context.Context) error
}

// TurnResult summarizes one completed chat turn.
type TurnResult struct {
	Reply    string
	ToolUsed string
	Rejected bool // empty input, nothing was sent
}

// Orchestrator runs the per-turn state machine: append the user message,
// call the assistant, reveal the reply into the log, then fire the report
// refetch when the turn created one. Failures degrade to a fallback reply;
// the turn always completes.
type Orchestrator struct {
	sender    Sender
	log       *Log
	register  *selection.Register
	revealer  *reveal.Scheduler
	reports   ReportInvalidator
	metrics   *observability.Metrics
	sessionID string

	photoMu      sync.Mutex
	pendingPhoto string

	inFlight  atomic.Bool
	streaming atomic.Bool
}

func NewOrchestrator(sender Sender, log *Log, register *selection.Register, revealer *reveal.Scheduler, reports ReportInvalidator, metrics *observability.Metrics, sessionID string) *Orchestrator {
	return &Orchestrator{
		sender:    sender,
		log:       log,
		register:  register,
		revealer:  revealer,
		reports:   reports,
		metrics:   metrics,
		sessionID: sessionID,
	}
}

// Send runs one chat turn to completion. Empty or whitespace-only input is
// rejected as a no-op. A second Send while a turn is in flight returns
// ErrTurnInProgress.
func (o *Orchestrator) Send(ctx context.Context, userText string) (TurnResult, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		if o.metrics != nil {
			o.metrics.ChatTurns.WithLabelValues("rejected").Inc()
		}
		return TurnResult{Rejected: true}, nil
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		return TurnResult{}, ErrTurnInProgress
	}
	defer o.inFlight.Store(false)

	start := time.Now()

	// The photo binds to the message that triggered this send, not to any
	// later turn: capture it into the user message, then clear it.
	photo := o.takePendingPhoto()
	o.log.Append(models.ChatMessage{Role: models.RoleUser, Text: text, Image: photo})

	coord, _, selected := o.register.Current()
	finalText := text
	if selected {
		// The coordinate rides in the text too, so the assistant sees it
		// rather than only receiving it as side-channel data.
		finalText += coordAnnotation(coord)
	}

	o.revealer.Reset()
	o.log.Append(models.ChatMessage{Role: models.RoleAssistant, Text: ""})
	o.streaming.Store(true)
	defer o.streaming.Store(false)

	req := Request{Message: finalText, SessionID: o.sessionID, PhotoURL: photo}
	if selected {
		loc := coord
		req.UserLocation = &loc
	}

	resp, err := o.sender.Send(ctx, req)
	outcome := "ok"
	if err != nil {
		slog.Error("chat turn failed, substituting fallback reply", "error", err)
		resp = Response{Reply: fallbackReply}
		outcome = "fallback"
	}
	if resp.Reply == "" {
		resp.Reply = emptyReply
	}

	if err := o.revealer.Reveal(ctx, resp.Reply, reveal.SinkFunc(o.log.SetLastAssistantText)); err != nil {
		// Cancelled mid-reveal; the log keeps the partial prefix.
		slog.Warn("reveal aborted", "error", err)
		return TurnResult{Reply: resp.Reply, ToolUsed: resp.ToolUsed}, err
	}

	if resp.ToolUsed == ToolAddReport && o.reports != nil {
		if err := o.reports.RefetchReports(ctx); err != nil {
			slog.Error("report refetch after chat turn failed", "error", err)
		}
	}

	if o.metrics != nil {
		o.metrics.ChatTurns.WithLabelValues(outcome).Inc()
		o.metrics.ChatTurnDuration.Observe(time.Since(start).Seconds())
	}

	return TurnResult{Reply: resp.Reply, ToolUsed: resp.ToolUsed}, nil
}

// AttachPhoto stages an uploaded photo URL for the next send.
func (o *Orchestrator) AttachPhoto(url string) {
	o.photoMu.Lock()
	o.pendingPhoto = url
	o.photoMu.Unlock()
}

// ClearPhoto drops a staged photo without sending it.
func (o *Orchestrator) ClearPhoto() {
	o.AttachPhoto("")
}

// PendingPhoto returns the staged photo URL, if any.
func (o *Orchestrator) PendingPhoto() string {
	o.photoMu.Lock()
	defer o.photoMu.Unlock()
	return o.pendingPhoto
}

func (o *Orchestrator) takePendingPhoto() string {
	o.photoMu.Lock()
	defer o.photoMu.Unlock()
	photo := o.pendingPhoto
	o.pendingPhoto = ""
	return photo
}

// Streaming reports whether a turn is currently revealing (or waiting on
// the assistant). Combined with the revealer's first-token flag it gates
// the typing indicator.
func (o *Orchestrator) Streaming() bool {
	return o.streaming.Load()
}

// Log exposes the session's message log to read-only consumers.
func (o *Orchestrator) Log() *Log {
	return o.log
}

// SessionID returns the opaque session correlation token.
func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

func coordAnnotation(c geo.Coordinate) string {
	return "\n\n[COORDS lat=" + formatCoord(c.Lat) + " lon=" + formatCoord(c.Lon) + "]"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
