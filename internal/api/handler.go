package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulsemaps/pulsemap/internal/chat"
	"github.com/pulsemaps/pulsemap/internal/geo"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/normalize"
	"github.com/pulsemaps/pulsemap/internal/observability"
	"github.com/pulsemaps/pulsemap/internal/reveal"
	"github.com/pulsemaps/pulsemap/internal/selection"
	"github.com/pulsemaps/pulsemap/internal/updates"
)

// Handler is the HTTP surface the view layer consumes. It is thin glue:
// every route reads from or writes through the core's stated entry points.
type Handler struct {
	register     *selection.Register
	aggregator   *updates.Aggregator
	orchestrator *chat.Orchestrator
	uploader     *chat.Uploader
	revealer     *reveal.Scheduler
	snapshots    updates.SnapshotSource
	metrics      *observability.Metrics
}

func NewHandler(register *selection.Register, aggregator *updates.Aggregator, orchestrator *chat.Orchestrator, uploader *chat.Uploader, revealer *reveal.Scheduler, snapshots updates.SnapshotSource, metrics *observability.Metrics) *Handler {
	return &Handler{
		register:     register,
		aggregator:   aggregator,
		orchestrator: orchestrator,
		uploader:     uploader,
		revealer:     revealer,
		snapshots:    snapshots,
		metrics:      metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/api/selection", h.getSelection)
	r.POST("/api/selection", h.postSelection)
	r.DELETE("/api/selection", h.clearSelection)

	r.GET("/api/updates/local", h.localUpdates)
	r.GET("/api/updates/global", h.globalUpdates)

	r.POST("/api/chat", h.postChat)
	r.GET("/api/messages", h.getMessages)

	r.POST("/api/photo", h.uploadPhoto)
	r.DELETE("/api/photo", h.clearPhoto)

	r.GET("/api/events", h.getEvents)

	r.GET("/api/severity-color", h.severityColor)
	r.GET("/api/icons/:name", h.iconCandidates)
}

type markerResponse struct {
	Coordinate geo.Coordinate       `json:"coordinate"`
	Meta       models.SelectionMeta `json:"meta"`
}

// getEvents lists every feed event as a normalized map marker. The view
// renders these directly; clicking one posts the marker back through
// /api/selection.
func (h *Handler) getEvents(c *gin.Context) {
	var out []markerResponse
	for _, snap := range h.snapshots.Snapshots() {
		if kind := c.Query("kind"); kind != "" && kind != string(snap.Kind) {
			continue
		}
		for _, ev := range snap.RawEvents() {
			out = append(out, markerResponse{
				Coordinate: ev.Coordinate,
				Meta:       normalize.Normalize(ev.Kind, ev.Properties, ev.Coordinate),
			})
		}
	}
	if out == nil {
		out = []markerResponse{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "events": out})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type selectionBody struct {
	Lat        *float64          `json:"lat"`
	Lon        *float64          `json:"lon"`
	Kind       models.SourceKind `json:"kind"`
	Title      string            `json:"title"`
	Severity   any               `json:"severity"`
	SourceURL  string            `json:"sourceUrl"`
	Properties map[string]any    `json:"properties"`
}

// postSelection is the single write path for all selection producers:
// search, geolocation, map clicks and drags, feed-marker clicks, and the
// update list's "View" action.
func (h *Handler) postSelection(c *gin.Context) {
	var body selectionBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Lat == nil || body.Lon == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	coord := geo.Coordinate{Lat: *body.Lat, Lon: *body.Lon}

	var meta models.SelectionMeta
	if body.Properties != nil {
		meta = normalize.Normalize(body.Kind, body.Properties, coord)
	} else {
		meta = models.SelectionMeta{
			Kind:      body.Kind,
			Title:     body.Title,
			Severity:  body.Severity,
			SourceURL: body.SourceURL,
		}
	}
	if body.Title != "" {
		meta.Title = body.Title
	}

	h.register.Select(coord, meta)
	if h.metrics != nil {
		h.metrics.SelectionChanges.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"coordinate": coord, "meta": meta})
}

func (h *Handler) getSelection(c *gin.Context) {
	coord, meta, ok := h.register.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"selected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": true, "coordinate": coord, "meta": meta})
}

func (h *Handler) clearSelection(c *gin.Context) {
	h.register.Clear()
	c.JSON(http.StatusOK, gin.H{"selected": false})
}

func (h *Handler) localUpdates(c *gin.Context) {
	coord, _, selected := h.register.Current()
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lon"})
			return
		}
		coord = geo.Coordinate{Lat: lat, Lon: lon}
		selected = true
	}
	if !selected {
		c.JSON(http.StatusOK, gin.H{"updates": []models.UpdateItem{}})
		return
	}

	query, ok := updateQuery(c)
	if !ok {
		return
	}

	items := h.aggregator.LocalUpdates(coord, query)
	if items == nil {
		items = []models.UpdateItem{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "updates": items})
}

func (h *Handler) globalUpdates(c *gin.Context) {
	query, ok := updateQuery(c)
	if !ok {
		return
	}

	items := h.aggregator.GlobalUpdates(query)
	if items == nil {
		items = []models.UpdateItem{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "updates": items})
}

// updateQuery parses the optional radius_miles, max_age_hours and limit
// query overrides. Absent parameters leave the configured defaults in
// force; a malformed value answers 400.
func updateQuery(c *gin.Context) (updates.Query, bool) {
	var q updates.Query
	if s := c.Query("radius_miles"); s != "" {
		r, err := strconv.ParseFloat(s, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_miles"})
			return q, false
		}
		q.RadiusMiles = r
	}
	if s := c.Query("max_age_hours"); s != "" {
		hours, err := strconv.ParseFloat(s, 64)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_age_hours"})
			return q, false
		}
		q.MaxAge = time.Duration(hours * float64(time.Hour))
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return q, false
		}
		q.Limit = n
	}
	return q, true
}

type chatBody struct {
	Message string `json:"message"`
}

func (h *Handler) postChat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	result, err := h.orchestrator.Send(c.Request.Context(), body.Message)
	if errors.Is(err, chat.ErrTurnInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in progress"})
		return
	}
	if err != nil {
		// Cancelled mid-reveal; the log keeps the partial reply.
		c.JSON(http.StatusOK, gin.H{"reply": result.Reply, "tool_used": result.ToolUsed})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":     result.Reply,
		"tool_used": result.ToolUsed,
		"rejected":  result.Rejected,
	})
}

func (h *Handler) getMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages":    h.orchestrator.Log().Messages(),
		"streaming":   h.orchestrator.Streaming(),
		"first_token": h.revealer.FirstToken(),
	})
}

// uploadPhoto proxies the file to the upload collaborator and stages the
// resulting URL for the next chat turn. Failures leave the pending photo
// unset; there is no structured error for the user.
func (h *Handler) uploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	url, err := h.uploader.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		slog.Warn("photo upload failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"uploaded": false})
		return
	}

	h.orchestrator.AttachPhoto(url)
	c.JSON(http.StatusOK, gin.H{"uploaded": true, "url": url})
}

func (h *Handler) clearPhoto(c *gin.Context) {
	h.orchestrator.ClearPhoto()
	c.JSON(http.StatusOK, gin.H{"uploaded": false})
}

func (h *Handler) severityColor(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"color": normalize.SeverityColor(c.Query("severity"))})
}

func (h *Handler) iconCandidates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"candidates": normalize.IconCandidates(c.Param("name"))})
}
