package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aptsurge/server/internal/models"
)

func digestFixture() *models.SummaryDocument {
	return &models.SummaryDocument{
		UpdatedAt: "2024-03-15T09:00:00Z",
		SidoOrder: []string{"서울", "부산"},
		Sidos: map[string]models.SidoSummary{
			"서울": {ReportSet: models.ReportSet{Section1: models.Report{
				Title: "오늘의 실거래 TOP 3",
				Top3: []models.Comparison{{
					AptName: "Riverside <A>", Sigungu: "강남구", AreaM2: 84.97,
					PrevPrice: 50000, LatestPrice: 125000, Pct: 150,
				}},
			}}},
			"부산": {ReportSet: models.ReportSet{Section1: models.Report{Title: "오늘의 실거래 TOP 3", Top3: []models.Comparison{}}}},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	msg := FormatDigest(digestFixture())
	assert.Contains(t, msg, "(2024-03-15)")
	assert.Contains(t, msg, "<b>서울</b>")
	assert.Contains(t, msg, "1. 강남구 Riverside &lt;A&gt; 84.97㎡ 5억 → 12억 5,000만 (+150.00%)")
	assert.NotContains(t, msg, "부산")

	assert.Equal(t, "", FormatDigest(&models.SummaryDocument{}))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "9,500만", formatPrice(9500))
	assert.Equal(t, "3억", formatPrice(30000))
	assert.Equal(t, "12억 5,000만", formatPrice(125000))
	assert.Equal(t, "1억 500만", formatPrice(10500))
}

func TestNotifyTopMovers(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s := NewService(Config{BotToken: "token", ChatID: "42", APIBaseURL: server.URL}, logger)

	require.NoError(t, s.NotifyTopMovers(context.Background(), digestFixture()))
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "HTML", payload["parse_mode"])
}

func TestSendMessageErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"Unauthorized", http.StatusUnauthorized, "invalid bot token"},
		{"Forbidden", http.StatusForbidden, "bot was blocked"},
		{"Server error", http.StatusInternalServerError, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			s := NewService(Config{BotToken: "token", ChatID: "42", APIBaseURL: server.URL}, nil)
			err := s.SendMessage(context.Background(), "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestDisabledServiceIsNoop(t *testing.T) {
	s := NewService(Config{}, nil)
	assert.NoError(t, s.SendMessage(context.Background(), "hi"))
	assert.NoError(t, s.NotifyTopMovers(context.Background(), digestFixture()))
}
