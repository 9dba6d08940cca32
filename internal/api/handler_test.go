package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemaps/pulsemap/internal/chat"
	"github.com/pulsemaps/pulsemap/internal/config"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/reveal"
	"github.com/pulsemaps/pulsemap/internal/selection"
	"github.com/pulsemaps/pulsemap/internal/updates"
)

type staticSnapshots struct {
	snaps []models.Snapshot
}

func (s *staticSnapshots) Snapshots() []models.Snapshot { return s.snaps }

type testServer struct {
	router   *gin.Engine
	register *selection.Register
	orch     *chat.Orchestrator
	chatSrv  *httptest.Server
}

func newTestServer(t *testing.T, snaps []models.Snapshot, chatHandler http.HandlerFunc) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if chatHandler == nil {
		chatHandler = func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(chat.Response{Reply: "ok"})
		}
	}
	chatSrv := httptest.NewServer(chatHandler)
	t.Cleanup(chatSrv.Close)

	src := &staticSnapshots{snaps: snaps}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	register := selection.NewRegister()
	t.Cleanup(register.Close)

	agg := updates.NewAggregator(src, config.UpdatesConfig{
		RadiusMiles: 25, MaxAge: 48 * time.Hour, LocalLimit: 100, GlobalLimit: 200,
	}, clock)

	revealer := reveal.NewScheduler(nil)
	log := chat.NewLog()
	client := chat.NewClient(chatSrv.URL, 5*time.Second)
	orch := chat.NewOrchestrator(client, log, register, revealer, nil, nil, "test-session")
	uploader := chat.NewUploader(chatSrv.URL+"/upload", chatSrv.URL)

	router := gin.New()
	NewHandler(register, agg, orch, uploader, revealer, src, nil).RegisterRoutes(router)

	return &testServer{router: router, register: register, orch: orch, chatSrv: chatSrv}
}

func (ts *testServer) do(t *testing.T, method, path string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func eventFeature(lat, lon float64, epochMS int64, props map[string]any) models.Feature {
	coords, _ := json.Marshal([]float64{lon, lat})
	if props == nil {
		props = map[string]any{}
	}
	props["time"] = float64(epochMS)
	return models.Feature{
		Geometry:   models.Geometry{Type: "Point", Coordinates: coords},
		Properties: props,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	w, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestSelectionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	// Initially nothing is selected.
	_, body := ts.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, false, body["selected"])

	// Posting lat/lon with a raw property bag normalizes it into meta.
	w, body := ts.do(t, http.MethodPost, "/api/selection",
		`{"lat": 40.0, "lon": -75.0, "kind": "quake", "properties": {"mag": 4.5, "place": "Philadelphia, PA"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "Earthquake at Philadelphia, PA", meta["title"])
	assert.Equal(t, "M4.5", meta["subtitle"])

	_, body = ts.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, true, body["selected"])

	// A later post replaces the pair wholesale.
	_, body = ts.do(t, http.MethodPost, "/api/selection",
		`{"lat": 41.0, "lon": -74.0, "kind": "click", "title": "Dropped pin"}`)
	meta = body["meta"].(map[string]any)
	assert.Equal(t, "Dropped pin", meta["title"])

	_, body = ts.do(t, http.MethodGet, "/api/selection", "")
	coord := body["coordinate"].(map[string]any)
	assert.Equal(t, 41.0, coord["lat"])

	// Clearing returns to the no-selection state.
	ts.do(t, http.MethodDelete, "/api/selection", "")
	_, body = ts.do(t, http.MethodGet, "/api/selection", "")
	assert.Equal(t, false, body["selected"])
}

func TestPostSelection_RequiresCoordinates(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	w, _ := ts.do(t, http.MethodPost, "/api/selection", `{"title": "no coords"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocalUpdates_EmptyWithoutSelection(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	w, body := ts.do(t, http.MethodGet, "/api/updates/local", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["updates"])
}

func TestLocalUpdates_ScopedToSelection(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	near := eventFeature(40.05, -75.0, now.Add(-time.Hour).UnixMilli(), map[string]any{"mag": 3.1, "place": "nearby"})
	far := eventFeature(50.0, -75.0, now.Add(-time.Hour).UnixMilli(), map[string]any{"mag": 6.0, "place": "far away"})

	ts := newTestServer(t, []models.Snapshot{
		{Kind: models.KindQuake, Features: []models.Feature{near, far}, FetchedAt: now},
	}, nil)

	ts.do(t, http.MethodPost, "/api/selection", `{"lat": 40.0, "lon": -75.0, "kind": "click"}`)

	_, body := ts.do(t, http.MethodGet, "/api/updates/local", "")
	updates := body["updates"].([]any)
	require.Len(t, updates, 1)
	first := updates[0].(map[string]any)
	assert.Equal(t, "Earthquake at nearby", first["title"])
}

func TestLocalUpdates_ExplicitCoordinatesOverrideSelection(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	near := eventFeature(50.05, -75.0, now.Add(-time.Hour).UnixMilli(), map[string]any{"mag": 2.0, "place": "north"})

	ts := newTestServer(t, []models.Snapshot{
		{Kind: models.KindQuake, Features: []models.Feature{near}, FetchedAt: now},
	}, nil)

	_, body := ts.do(t, http.MethodGet, "/api/updates/local?lat=50.0&lon=-75.0", "")
	assert.Len(t, body["updates"], 1)

	w, _ := ts.do(t, http.MethodGet, "/api/updates/local?lat=bogus&lon=-75.0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdates_QueryParameterOverrides(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	nearFresh := eventFeature(40.01, -75.0, now.Add(-time.Hour).UnixMilli(), map[string]any{"mag": 2.0, "place": "close and fresh"})
	nearOld := eventFeature(40.02, -75.0, now.Add(-30*time.Hour).UnixMilli(), map[string]any{"mag": 2.5, "place": "close and old"})
	farther := eventFeature(40.15, -75.0, now.Add(-time.Hour).UnixMilli(), map[string]any{"mag": 3.0, "place": "ten miles out"})

	ts := newTestServer(t, []models.Snapshot{
		{Kind: models.KindQuake, Features: []models.Feature{nearFresh, nearOld, farther}, FetchedAt: now},
	}, nil)

	// Defaults: all three fall inside 25mi / 48h.
	_, body := ts.do(t, http.MethodGet, "/api/updates/local?lat=40.0&lon=-75.0", "")
	assert.Len(t, body["updates"], 3)

	// A tighter radius drops the distant event.
	_, body = ts.do(t, http.MethodGet, "/api/updates/local?lat=40.0&lon=-75.0&radius_miles=5", "")
	assert.Len(t, body["updates"], 2)

	// A shorter window drops the old event.
	_, body = ts.do(t, http.MethodGet, "/api/updates/local?lat=40.0&lon=-75.0&max_age_hours=6", "")
	assert.Len(t, body["updates"], 2)

	// A limit truncates the sorted list.
	_, body = ts.do(t, http.MethodGet, "/api/updates/local?lat=40.0&lon=-75.0&limit=1", "")
	updates := body["updates"].([]any)
	require.Len(t, updates, 1)

	// The global list honors limit as well.
	_, body = ts.do(t, http.MethodGet, "/api/updates/global?limit=2", "")
	assert.Len(t, body["updates"], 2)

	// Malformed overrides answer 400.
	for _, path := range []string{
		"/api/updates/local?lat=40.0&lon=-75.0&radius_miles=-1",
		"/api/updates/local?lat=40.0&lon=-75.0&max_age_hours=soon",
		"/api/updates/local?lat=40.0&lon=-75.0&limit=0",
		"/api/updates/global?limit=lots",
	} {
		w, _ := ts.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGlobalUpdates_Unscoped(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	old := eventFeature(50.0, -75.0, now.Add(-100*time.Hour).UnixMilli(), map[string]any{"mag": 6.0, "place": "old and far"})

	ts := newTestServer(t, []models.Snapshot{
		{Kind: models.KindQuake, Features: []models.Feature{old}, FetchedAt: now},
	}, nil)

	_, body := ts.do(t, http.MethodGet, "/api/updates/global", "")
	assert.Len(t, body["updates"], 1, "the global list has no radius or recency filter")
}

func TestPostChat_RoundTrip(t *testing.T) {
	ts := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "test-session", req.SessionID)
		json.NewEncoder(w).Encode(chat.Response{Reply: "Stay safe out there."})
	})

	w, body := ts.do(t, http.MethodPost, "/api/chat", `{"message": "any floods nearby?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stay safe out there.", body["reply"])

	_, body = ts.do(t, http.MethodGet, "/api/messages", "")
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, false, body["streaming"])
}

func TestPostChat_EmptyMessageRejected(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	w, body := ts.do(t, http.MethodPost, "/api/chat", `{"message": "   "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["rejected"])
}

func TestUploadPhoto_StagesPendingPhoto(t *testing.T) {
	ts := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/upload") {
			json.NewEncoder(w).Encode(map[string]string{"path": "/uploads/pic.jpg"})
			return
		}
		json.NewEncoder(w).Encode(chat.Response{Reply: "ok"})
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "pic.jpg")
	require.NoError(t, err)
	part.Write([]byte("jpeg bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["uploaded"])
	assert.Equal(t, ts.chatSrv.URL+"/uploads/pic.jpg", ts.orch.PendingPhoto())

	// Clearing drops the staged photo.
	ts.do(t, http.MethodDelete, "/api/photo", "")
	assert.Empty(t, ts.orch.PendingPhoto())
}

func TestUploadPhoto_FailureIsNotAnError(t *testing.T) {
	ts := newTestServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage down", http.StatusInternalServerError)
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "pic.jpg")
	part.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "upload failure degrades quietly")
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["uploaded"])
	assert.Empty(t, ts.orch.PendingPhoto())
}

func TestGetEvents_NormalizedMarkers(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestServer(t, []models.Snapshot{
		{Kind: models.KindQuake, Features: []models.Feature{
			eventFeature(40.0, -75.0, now.UnixMilli(), map[string]any{"mag": 5.0, "place": "offshore"}),
		}, FetchedAt: now},
		{Kind: models.KindReport, Features: []models.Feature{
			eventFeature(41.0, -74.0, now.UnixMilli(), map[string]any{"text": "downed power line"}),
		}, FetchedAt: now},
	}, nil)

	_, body := ts.do(t, http.MethodGet, "/api/events", "")
	assert.Equal(t, 2.0, body["count"])

	_, body = ts.do(t, http.MethodGet, "/api/events?kind=report", "")
	events := body["events"].([]any)
	require.Len(t, events, 1)
	meta := events[0].(map[string]any)["meta"].(map[string]any)
	assert.Equal(t, "downed power line", meta["title"])
}

func TestSeverityColor(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	_, body := ts.do(t, http.MethodGet, "/api/severity-color?severity=Severe", "")
	assert.Equal(t, "#d7191c", body["color"])

	_, body = ts.do(t, http.MethodGet, "/api/severity-color?severity=unknown-thing", "")
	assert.Equal(t, "#9e9e9e", body["color"])
}

func TestIconCandidates(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	_, body := ts.do(t, http.MethodGet, "/api/icons/car-accident", "")
	candidates := body["candidates"].([]any)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "CarAccident", candidates[0])
	assert.Equal(t, "Info", candidates[len(candidates)-1])
}
