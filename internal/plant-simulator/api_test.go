package plant_simulator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/greenpulse/internal/model"
)

func seededRegistry() *Registry {
	reg := NewRegistry()
	reg.Upsert("c1", model.Plant{Type: "cactus", Environment: "Balcony", Humidity: 25, Alive: true, NeedsWater: true})
	reg.Upsert("h1", model.Plant{Type: "herb", Environment: "Indoors", Humidity: 60, Alive: true})
	reg.Upsert("h2", model.Plant{Type: "herb", Environment: "Indoors", Humidity: 5, Alive: false, NeedsWater: true})
	reg.Upsert("t1", model.Plant{Type: "tropical", Environment: "Indoors", Humidity: 15, Alive: true, NeedsWater: true})
	return reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func plantIDs(t *testing.T, rr *httptest.ResponseRecorder) []string {
	t.Helper()
	var plants []model.Plant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plants))
	ids := make([]string, 0, len(plants))
	for _, p := range plants {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestAPI_Plants(t *testing.T) {
	mux := NewHTTPMux(seededRegistry(), nil, nil)

	rr := get(t, mux, "/plants")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, []string{"c1", "h1", "h2", "t1"}, plantIDs(t, rr))

	assert.Equal(t, []string{"h1", "h2", "t1"}, plantIDs(t, get(t, mux, "/plants?environment=indoors")))
	assert.Equal(t, []string{"h2"}, plantIDs(t, get(t, mux, "/plants?alive=false")))
}

func TestAPI_PlantByID(t *testing.T) {
	mux := NewHTTPMux(seededRegistry(), nil, nil)

	rr := get(t, mux, "/plants/h1")
	require.Equal(t, http.StatusOK, rr.Code)
	var p model.Plant
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "herb", p.Type)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/plants/ghost").Code)
}

func TestAPI_Thirsty(t *testing.T) {
	mux := NewHTTPMux(seededRegistry(), nil, nil)
	assert.Equal(t, []string{"t1", "c1"}, plantIDs(t, get(t, mux, "/plants/thirsty")))
}

func TestAPI_Summary(t *testing.T) {
	mux := NewHTTPMux(seededRegistry(), nil, nil)

	rr := get(t, mux, "/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	var s Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, 4, s.Plants)
	assert.Equal(t, 3, s.Alive)
	assert.Equal(t, 1, s.Dead)
	assert.Equal(t, 2, s.NeedsWater)
	assert.Equal(t, 2, s.ByType["herb"])
	require.NotNil(t, s.Humidity)
	assert.Equal(t, 33.3, s.Humidity.Avg)
	assert.Equal(t, 15.0, s.Humidity.Min)
	assert.Equal(t, 60.0, s.Humidity.Max)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Plants)
	assert.Nil(t, s.Humidity)
}

func TestAPI_Metrics(t *testing.T) {
	mux := NewHTTPMux(NewRegistry(), nil, nil)
	rr := get(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "greenpulse_ticks_total")
}
