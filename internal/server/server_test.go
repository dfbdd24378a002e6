package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-greeks-sim/internal/live"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	s := New(Config{MaxPaths: 50})
	s.now = func() time.Time { return time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// one year of business days at the reference contract
func referenceBody() map[string]any {
	return map[string]any{
		"spot":       100,
		"strike":     100,
		"volatility": 0.2,
		"rate":       0.05,
		"expiry":     "2024-12-18",
	}
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPrice_BothKinds(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/price", referenceBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-01-01", resp.ValuationDate)
	assert.InDelta(t, 1.0, resp.TimeFraction, 1e-12)
	require.Len(t, resp.Greeks, 2)
	assert.InDelta(t, 10.450583572185565, resp.Greeks["call"].Price, 1e-9)
	assert.InDelta(t, 5.573526022256971, resp.Greeks["put"].Price, 1e-9)
}

func TestPrice_SingleKind(t *testing.T) {
	body := referenceBody()
	body["kind"] = "put"
	body["valuation_date"] = "2024-01-01"
	w := do(t, newTestServer(), http.MethodPost, "/api/v1/price", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Greeks, 1)
	assert.InDelta(t, -1.657880423934626, resp.Greeks["put"].Theta, 1e-9)
}

func TestPrice_BadRequests(t *testing.T) {
	cases := map[string]func(map[string]any){
		"unknown kind":      func(b map[string]any) { b["kind"] = "straddle" },
		"negative vol":      func(b map[string]any) { b["volatility"] = -0.2 },
		"missing strike":    func(b map[string]any) { delete(b, "strike") },
		"bad expiry":        func(b map[string]any) { b["expiry"] = "18/12/2024" },
		"expired":           func(b map[string]any) { b["expiry"] = "2023-12-29" },
		"bad valuation day": func(b map[string]any) { b["valuation_date"] = "yesterday" },
	}
	s := newTestServer()
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			body := referenceBody()
			mutate(body)
			w := do(t, s, http.MethodPost, "/api/v1/price", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	body := referenceBody()
	body["expiry"] = "2024-01-31"
	body["seed"] = 11
	s := newTestServer()

	var runs [2]SimulateResponse
	for i := range runs {
		w := do(t, s, http.MethodPost, "/api/v1/simulate", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs[i]))
	}

	require.NotNil(t, runs[0].Series)
	assert.Equal(t, 30, runs[0].Len())
	assert.Equal(t, runs[0].Snapshots, runs[1].Snapshots)
	assert.NotEqual(t, runs[0].RunID, runs[1].RunID)
	require.NotNil(t, runs[0].Seed)
	assert.EqualValues(t, 11, *runs[0].Seed)

	last, ok := runs[0].Last()
	require.True(t, ok)
	assert.True(t, last.Settled)
}

func TestSimulate_HorizonCap(t *testing.T) {
	s := newTestServer()
	body := referenceBody()
	body["seed"] = 1

	body["expiry"] = "2124-01-01"
	w := do(t, s, http.MethodPost, "/api/v1/simulate", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "calendar days")

	body["paths"] = 2
	w = do(t, s, http.MethodPost, "/api/v1/ensemble", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the cap is configurable
	small := New(Config{MaxDays: 10})
	small.now = s.now
	body["expiry"] = "2024-01-31"
	w = do(t, small, http.MethodPost, "/api/v1/simulate", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body["expiry"] = "2024-01-11"
	w = do(t, small, http.MethodPost, "/api/v1/simulate", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestEnsemble(t *testing.T) {
	body := referenceBody()
	body["expiry"] = "2024-01-31"
	body["seed"] = 5
	body["paths"] = 8
	s := newTestServer()

	w := do(t, s, http.MethodPost, "/api/v1/ensemble", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sum simulate.EnsembleSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 8, sum.Paths)
	assert.EqualValues(t, 5, sum.Seed)
	assert.Greater(t, sum.InitialPrice, 0.0)

	body["paths"] = 51
	w = do(t, s, http.MethodPost, "/api/v1/ensemble", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["paths"] = 0
	w = do(t, s, http.MethodPost, "/api/v1/ensemble", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func liveURL(base string, q url.Values) string {
	return "ws" + strings.TrimPrefix(base, "http") + "/api/v1/live?" + q.Encode()
}

func liveQuery() url.Values {
	q := url.Values{}
	q.Set("kind", "call")
	q.Set("spot", "9500")
	q.Set("strike", "9500")
	q.Set("volatility", "0.1")
	q.Set("rate", "0.02")
	q.Set("expiry", "2024-03-01")
	q.Set("valuation_date", "2024-01-01")
	q.Set("seed", "3")
	return q
}

func TestLive_StreamsUntilMaxTicks(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Handler())
	defer ts.Close()

	q := liveQuery()
	q.Set("max_ticks", "2")
	q.Set("schedule", "@every 1s")
	conn, _, err := websocket.DefaultDialer.Dial(liveURL(ts.URL, q), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var snaps []simulate.Snapshot
	var done *live.Result
	for done == nil {
		var msg LiveMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch {
		case msg.Snapshot != nil:
			snaps = append(snaps, *msg.Snapshot)
		case msg.Done != nil:
			done = msg.Done
			assert.Empty(t, msg.Error)
		}
	}

	require.Len(t, snaps, 2)
	assert.Equal(t, 0, snaps[0].Step)
	assert.Equal(t, 1, snaps[1].Step)
	assert.Equal(t, 2, done.Ticks)
	assert.Equal(t, live.ReasonMaxTicks, done.Reason)
}

func TestLive_RejectsBeforeUpgrade(t *testing.T) {
	ts := httptest.NewServer(newTestServer().Handler())
	defer ts.Close()

	q := liveQuery()
	q.Set("schedule", "whenever")
	_, resp, err := websocket.DefaultDialer.Dial(liveURL(ts.URL, q), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	q = liveQuery()
	q.Set("schedule", "0 0 0 30 2 *") // parses, never fires
	_, resp, err = websocket.DefaultDialer.Dial(liveURL(ts.URL, q), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	q = liveQuery()
	q.Set("expiry", "2124-01-01")
	_, resp, err = websocket.DefaultDialer.Dial(liveURL(ts.URL, q), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	q = liveQuery()
	q.Set("strike", "-1")
	_, resp, err = websocket.DefaultDialer.Dial(liveURL(ts.URL, q), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
