package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"aptsurge/server/internal/models"
)

// Config holds the bot credentials
type Config struct {
	BotToken   string
	ChatID     string
	APIBaseURL string
}

func (c Config) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}

type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(config Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = "https://api.telegram.org"
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: config,
	}
}

// SendMessage sends an HTML message to the configured chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.config.Enabled() {
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.config.APIBaseURL, "/"), s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":                  s.config.ChatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyTopMovers sends today's top movers of every province, when any exist
func (s *Service) NotifyTopMovers(ctx context.Context, doc *models.SummaryDocument) error {
	if !s.config.Enabled() || doc == nil {
		return nil
	}

	message := FormatDigest(doc)
	if message == "" {
		s.logger.Info("No movers to report, skipping Telegram digest")
		return nil
	}

	if err := s.SendMessage(ctx, message); err != nil {
		return err
	}
	s.logger.WithField("sidos", len(doc.SidoOrder)).Info("Sent Telegram digest")
	return nil
}

// FormatDigest renders section1 of every province; "" when all are empty
func FormatDigest(doc *models.SummaryDocument) string {
	var b strings.Builder
	for _, sido := range doc.SidoOrder {
		report := doc.Sidos[sido].Section1
		if len(report.Top3) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n<b>%s</b> %s\n", html.EscapeString(sido), html.EscapeString(report.Title))
		for i, e := range report.Top3 {
			fmt.Fprintf(&b, "%d. %s %s %s㎡ %s → %s (+%.2f%%)\n",
				i+1,
				html.EscapeString(e.Sigungu),
				html.EscapeString(e.AptName),
				formatArea(e.AreaM2),
				formatPrice(e.PrevPrice),
				formatPrice(e.LatestPrice),
				e.Pct,
			)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("<b>아파트 실거래 상승 TOP</b> (%s)\n", doc.UpdatedAt[:min(10, len(doc.UpdatedAt))]) + b.String()
}

func formatArea(area float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", area), "0"), ".")
}

// formatPrice renders 만원 amounts as 억/만 (125000 -> 12억 5,000만)
func formatPrice(man int64) string {
	eok := man / 10000
	rest := man % 10000
	switch {
	case eok == 0:
		return fmt.Sprintf("%s만", groupThousands(rest))
	case rest == 0:
		return fmt.Sprintf("%d억", eok)
	default:
		return fmt.Sprintf("%d억 %s만", eok, groupThousands(rest))
	}
}

func groupThousands(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}
