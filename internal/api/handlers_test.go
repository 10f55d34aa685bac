package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aptsurge/server/internal/metrics"
	"aptsurge/server/internal/models"
	"aptsurge/server/internal/runlog"
	"aptsurge/server/internal/storage"
)

type MockRunLister struct {
	mock.Mock
}

func (m *MockRunLister) Recent(limit int) ([]runlog.Run, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]runlog.Run)
	return runs, args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func seedStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store := storage.NewFileStore(t.TempDir(), "data/apt_trade", testLogger())

	entry := func(id, apt, sigungu, dong, district string, pct float64) models.Comparison {
		return models.Comparison{
			ID: id, AptName: apt, Sigungu: sigungu, DongName: dong, District: district,
			AreaM2: 84.97, LatestDate: "2024-05-10", LatestPrice: 140000, PrevPrice: 100000,
			Change: 40000, Pct: pct,
		}
	}

	require.NoError(t, store.WriteSummary(&models.SummaryDocument{
		UpdatedAt:    "2024-05-11T00:00:00Z",
		MonthsKept:   84,
		TotalTxns:    3,
		CurrentMonth: "202405",
		SidoOrder:    []string{"서울", "경기"},
		Sidos: map[string]models.SidoSummary{
			"서울": {DistrictOrder: []string{"강남구"}},
			"경기": {DistrictOrder: []string{"수원시"}},
		},
	}))
	require.NoError(t, store.WriteSearchIndex(&models.SearchIndexDocument{
		UpdatedAt: "2024-05-11T00:00:00Z",
		SidoOrder: []string{"서울", "경기"},
		Sidos: map[string]models.SearchSido{
			"서울": {DistrictOrder: []string{"강남구"}, Items: []models.Comparison{
				entry("aaaaaaaaaa", "Riverside", "강남구", "역삼동", "강남구", 40),
				entry("bbbbbbbbbb", "Hilltop", "강남구", "대치동", "강남구", 12.5),
			}},
			"경기": {DistrictOrder: []string{"수원시"}, Items: []models.Comparison{
				entry("cccccccccc", "Riverview", "수원시 장안구", "정자동", "수원시", 8),
			}},
		},
	}))
	require.NoError(t, store.WriteIndex(&models.IndexDocument{
		UpdatedAt:  "2024-05-11T00:00:00Z",
		MonthsKept: 84,
		LawdList:   []string{"11680"},
		Files:      []models.IndexFile{{LawdCd: "11680", DealYm: "202405", Count: 3, Path: "data/apt_trade/by_lawd/11680/202405.json"}},
	}))
	require.NoError(t, store.WriteHistory("aaaaaaaaaa", []models.PricePoint{
		{Date: "2023-01-02", Price: 100000},
		{Date: "2024-05-10", Price: 140000},
	}))
	return store
}

func setupRouter(store DocumentReader, runs RunLister, docsDir string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, NewHandler(store, runs, testLogger()), metrics.NewHTTP(), []string{"*"}, docsDir)
	return router
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) (int, []models.Comparison) {
	t.Helper()
	var body struct {
		Total int                 `json:"total"`
		Items []models.Comparison `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Total, body.Items
}

func TestGetSummary(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	t.Run("whole document", func(t *testing.T) {
		w := get(router, "/api/summary")
		require.Equal(t, http.StatusOK, w.Code)

		var doc models.SummaryDocument
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, []string{"서울", "경기"}, doc.SidoOrder)
		assert.Equal(t, 3, doc.TotalTxns)
	})

	t.Run("single province", func(t *testing.T) {
		w := get(router, "/api/summary?sido=%EA%B2%BD%EA%B8%B0")
		require.Equal(t, http.StatusOK, w.Code)

		var sido models.SidoSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sido))
		assert.Equal(t, []string{"수원시"}, sido.DistrictOrder)
	})

	t.Run("unknown province", func(t *testing.T) {
		w := get(router, "/api/summary?sido=%EC%A0%9C%EC%A3%BC")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetSummary_NotGenerated(t *testing.T) {
	store := storage.NewFileStore(t.TempDir(), "", testLogger())
	router := setupRouter(store, nil, "")

	for _, target := range []string{"/api/summary", "/api/search", "/api/index", "/api/apartments/aaaaaaaaaa/history"} {
		w := get(router, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestSearch(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantIDs   []string
	}{
		{"all items in display order", "", 3, []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"}},
		{"case insensitive apartment name", "?q=river", 2, []string{"aaaaaaaaaa", "cccccccccc"}},
		{"dong name", "?q=%EB%8C%80%EC%B9%98", 1, []string{"bbbbbbbbbb"}},
		{"sigungu", "?q=%EC%9E%A5%EC%95%88%EA%B5%AC", 1, []string{"cccccccccc"}},
		{"province filter", "?sido=%EA%B2%BD%EA%B8%B0", 1, []string{"cccccccccc"}},
		{"district filter", "?sido=%EC%84%9C%EC%9A%B8&district=%EA%B0%95%EB%82%A8%EA%B5%AC", 2, []string{"aaaaaaaaaa", "bbbbbbbbbb"}},
		{"limit keeps total", "?limit=1", 3, []string{"aaaaaaaaaa"}},
		{"no match", "?q=nothing", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, "/api/search"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			total, items := decodeSearch(t, w)
			assert.Equal(t, tt.wantTotal, total)

			ids := []string{}
			for _, item := range items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSearch_InvalidLimit(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	w := get(router, "/api/search?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	tests := []struct {
		name     string
		id       string
		wantCode int
	}{
		{"existing", "aaaaaaaaaa", http.StatusOK},
		{"missing", "0123456789", http.StatusNotFound},
		{"uppercase rejected", "AAAAAAAAAA", http.StatusBadRequest},
		{"too short", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, "/api/apartments/"+tt.id+"/history")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	w := get(router, "/api/apartments/aaaaaaaaaa/history")
	var body struct {
		ID      string            `json:"id"`
		History []json.RawMessage `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "aaaaaaaaaa", body.ID)
	require.Len(t, body.History, 2)
	assert.JSONEq(t, `["2023-01-02",100000]`, string(body.History[0]))
}

func TestGetIndex(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	w := get(router, "/api/index")
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.IndexDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "202405", doc.Files[0].DealYm)
}

func TestGetRuns(t *testing.T) {
	t.Run("without run log", func(t *testing.T) {
		router := setupRouter(seedStore(t), nil, "")
		w := get(router, "/api/runs")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("default limit", func(t *testing.T) {
		runs := new(MockRunLister)
		runs.On("Recent", 20).Return([]runlog.Run{{ID: "r1", Mode: "fetch", Status: runlog.StatusSucceeded, StartedAt: time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)}}, nil)

		router := setupRouter(seedStore(t), runs, "")
		w := get(router, "/api/runs")
		require.Equal(t, http.StatusOK, w.Code)

		var got []runlog.Run
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].ID)
		runs.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		runs := new(MockRunLister)
		runs.On("Recent", 5).Return(nil, errors.New("database is locked"))

		router := setupRouter(seedStore(t), runs, "")
		w := get(router, "/api/runs?limit=5")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		runs.AssertExpectations(t)
	})
}

func TestListRegions(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	w := get(router, "/api/regions?sido=%EA%B2%BD%EA%B8%B0")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Regions []regionView `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Regions)

	districts := map[string]string{}
	for _, r := range body.Regions {
		assert.Equal(t, "경기", r.Sido)
		districts[r.Code] = r.District
	}
	assert.Equal(t, "수원시", districts["41111"])
	assert.Equal(t, "의정부시", districts["41150"])

	w = get(router, "/api/regions?sido=nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticFilesAndMetrics(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.html"), []byte("<html>ok</html>"), 0o644))
	router := setupRouter(seedStore(t), nil, docsDir)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	get(router, "/api/index")
	w = get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestCORS(t *testing.T) {
	router := setupRouter(seedStore(t), nil, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/index", nil)
	req.Header.Set("Origin", "https://example.org")
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
