package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skimeister/internal/ingest"
	"github.com/i474232898/skimeister/internal/resort"
	"github.com/i474232898/skimeister/internal/search"
	"github.com/i474232898/skimeister/internal/store"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()

	repo := store.NewMemoryStore(resort.StatusUnknown)
	for _, r := range ingest.SampleResorts() {
		_, err := repo.UpsertResort(context.Background(), r)
		require.NoError(t, err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, repo, search.NewEngine(search.DefaultBounds()), nil)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	code, body := get(t, newApp(t), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSearchRequiresCoordinates(t *testing.T) {
	app := newApp(t)
	for _, target := range []string{
		"/api/search",
		"/api/search?lat=46.0",
		"/api/search?lat=abc&lng=7.7",
		"/api/search?lat=95&lng=7.7",
		"/api/search?lat=NaN&lng=7.7",
	} {
		code, body := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, false, body["success"], target)
		assert.Equal(t, "Missing lat or lng parameters", body["error"], target)
	}
}

func TestSearchNearZermatt(t *testing.T) {
	code, body := get(t, newApp(t), "/api/search?lat=46.02&lng=7.75&radius=50")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, 50.0, body["radius_km"])
	assert.Equal(t, map[string]any{"lat": 46.02, "lng": 7.75}, body["user_location"])

	resorts := body["resorts"].([]any)
	require.NotEmpty(t, resorts)
	assert.Equal(t, float64(len(resorts)), body["count"])

	first := resorts[0].(map[string]any)
	assert.Equal(t, "zermatt-matterhorn", first["slug"])
	assert.Contains(t, first, "distance_km")

	prev := 0.0
	for _, item := range resorts {
		d := item.(map[string]any)["distance_km"].(float64)
		assert.LessOrEqual(t, d, 50.0)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestSearchClampsRadiusAndIgnoresBadFilters(t *testing.T) {
	app := newApp(t)

	code, body := get(t, app, "/api/search?lat=46.5&lng=8.5&radius=5000&min_snow=lots&status=snowing")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 500.0, body["radius_km"])
	assert.Equal(t, 8.0, body["count"])

	code, body = get(t, app, "/api/search?lat=46.5&lng=8.5&radius=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10.0, body["radius_km"])

	code, body = get(t, app, "/api/search?lat=46.5&lng=8.5&radius=oops")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 200.0, body["radius_km"])
}

func TestSearchSortByPrice(t *testing.T) {
	code, body := get(t, newApp(t), "/api/search?lat=46.5&lng=8.5&radius=500&sort=price")
	require.Equal(t, http.StatusOK, code)

	prev := 0.0
	for _, item := range body["resorts"].([]any) {
		price := item.(map[string]any)["pricing"].(map[string]any)["adult_day_pass"].(float64)
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}
}

func TestListResortsWithFilters(t *testing.T) {
	app := newApp(t)

	code, body := get(t, app, "/api/resorts")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 8.0, body["count"])

	code, body = get(t, app, "/api/resorts?max_price=80")
	require.Equal(t, http.StatusOK, code)
	for _, item := range body["resorts"].([]any) {
		price := item.(map[string]any)["pricing"].(map[string]any)["adult_day_pass"].(float64)
		assert.LessOrEqual(t, price, 80.0)
	}
	assert.Less(t, body["count"].(float64), 8.0)

	_, body = get(t, app, "/api/resorts?country=Austria")
	assert.Equal(t, 0.0, body["count"])

	_, body = get(t, app, "/api/resorts?min_snow=abc&max_price=")
	assert.Equal(t, 8.0, body["count"])
}

func TestListResortsMinSnowIsInteger(t *testing.T) {
	app := newApp(t)

	_, body := get(t, app, "/api/resorts?min_snow=200")
	assert.Equal(t, 2.0, body["count"])

	_, body = get(t, app, "/api/resorts?min_snow=199.5")
	assert.Equal(t, 8.0, body["count"], "non-integer values do not constrain")
}

func TestGetResort(t *testing.T) {
	app := newApp(t)

	code, body := get(t, app, "/api/resort/1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "zermatt-matterhorn", body["resort"].(map[string]any)["slug"])

	for _, target := range []string{"/api/resort/999", "/api/resort/abc"} {
		code, body = get(t, app, target)
		assert.Equal(t, http.StatusNotFound, code, target)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Resort not found", body["error"])
	}
}

func TestStats(t *testing.T) {
	code, body := get(t, newApp(t), "/api/stats")
	require.Equal(t, http.StatusOK, code)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, 8.0, stats["total_resorts"])
	assert.Equal(t, []any{"Switzerland"}, stats["countries"])
}
