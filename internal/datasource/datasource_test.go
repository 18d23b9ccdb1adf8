package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/rebound-edge/internal/models"
)

// TestParseMinutes tests minutes parsing in both provider formats
func TestParseMinutes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		valid    bool
	}{
		{"Decimal", "34.5", "34.5", true},
		{"Integer", "36", "36", true},
		{"Clock", "34:30", "34.5", true},
		{"Clock zero seconds", "12:00", "12", true},
		{"Empty", "", "", false},
		{"Garbage", "DNP", "", false},
		{"Invalid seconds", "34:75", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMinutes(tt.input)
			if tt.valid {
				if got == nil {
					t.Fatalf("expected %s, got nil", tt.expected)
				}
				if got.String() != tt.expected {
					t.Errorf("expected %s, got %s", tt.expected, got.String())
				}
			} else if got != nil {
				t.Errorf("expected nil, got %s", got.String())
			}
		})
	}
}

// TestParseOdds tests wire odds format detection
func TestParseOdds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  models.OddsFormat
		value   float64
		wantErr bool
	}{
		{"American negative", "-110", models.OddsAmerican, -110, false},
		{"American positive", "+120", models.OddsAmerican, 120, false},
		{"Decimal", "1.91", models.OddsDecimal, 1.91, false},
		{"Empty", "", "", 0, true},
		{"Garbage", "evens", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			odds, err := parseOdds(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if odds.Format != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, odds.Format)
			}
			if odds.Value != tt.value {
				t.Errorf("expected value %v, got %v", tt.value, odds.Value)
			}
		})
	}
}

// TestConvertQuote tests wire quote conversion
func TestConvertQuote(t *testing.T) {
	msg := &quoteMessage{
		Op:        "quote",
		PlayerID:  "player-1",
		GameDate:  "2024-01-20",
		Line:      "7.5",
		OverOdds:  "-110",
		UnderOdds: "-110",
		Book:      "pinnacle",
		Timestamp: "2024-01-20T15:04:05Z",
	}

	quote, err := convertQuote(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.PlayerID != "player-1" {
		t.Errorf("expected player-1, got %s", quote.PlayerID)
	}
	if quote.Line != 7.5 {
		t.Errorf("expected line 7.5, got %v", quote.Line)
	}
	if quote.OverOdds.Format != models.OddsAmerican {
		t.Errorf("expected american over odds, got %s", quote.OverOdds.Format)
	}
	if !quote.GameDate.Equal(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected game date %v", quote.GameDate)
	}
}

// TestConvertQuoteRejectsMalformed tests conversion failures
func TestConvertQuoteRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		msg  quoteMessage
	}{
		{"Bad date", quoteMessage{GameDate: "January 20", Line: "7.5", OverOdds: "-110", UnderOdds: "-110"}},
		{"Bad line", quoteMessage{GameDate: "2024-01-20", Line: "seven", OverOdds: "-110", UnderOdds: "-110"}},
		{"Missing odds", quoteMessage{GameDate: "2024-01-20", Line: "7.5", OverOdds: "", UnderOdds: "-110"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := convertQuote(&tt.msg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// TestSetReconnectConfigDefaults tests that unset policy fields keep defaults
func TestSetReconnectConfigDefaults(t *testing.T) {
	client := NewQuoteFeedClient("ws://quotes.example.com", "", nil, nil)
	client.SetReconnectConfig(ReconnectConfig{InitialBackoff: 5 * time.Second})

	client.mu.RLock()
	rc := client.reconnectConfig
	client.mu.RUnlock()

	if rc.InitialBackoff != 5*time.Second {
		t.Errorf("expected 5s initial backoff, got %v", rc.InitialBackoff)
	}
	def := DefaultReconnectConfig()
	if rc.MaxRetries != def.MaxRetries {
		t.Errorf("expected default max retries %d, got %d", def.MaxRetries, rc.MaxRetries)
	}
	if rc.MaxBackoff != def.MaxBackoff {
		t.Errorf("expected default max backoff %v, got %v", def.MaxBackoff, rc.MaxBackoff)
	}
	if rc.BackoffMultiplier != def.BackoffMultiplier {
		t.Errorf("expected default multiplier %v, got %v", def.BackoffMultiplier, rc.BackoffMultiplier)
	}
}

// TestConnectWithRetryGivesUp tests retry exhaustion against a dead endpoint
func TestConnectWithRetryGivesUp(t *testing.T) {
	client := NewQuoteFeedClient("ws://127.0.0.1:1", "", nil, nil)
	client.SetReconnectConfig(ReconnectConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	})

	if err := client.ConnectWithRetry(context.Background()); err == nil {
		t.Fatal("expected error with no listener")
	}
}

// TestConnectWithRetryHonorsContext tests that cancellation stops the retries
func TestConnectWithRetryHonorsContext(t *testing.T) {
	client := NewQuoteFeedClient("ws://127.0.0.1:1", "", nil, nil)
	client.SetReconnectConfig(ReconnectConfig{
		MaxRetries:     5,
		InitialBackoff: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.ConnectWithRetry(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestConnectWithRetrySucceeds tests connecting through a live upgrade server
func TestConnectWithRetrySucceeds(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client := NewQuoteFeedClient(url, "", []string{"pinnacle"}, nil)
	client.SetReconnectConfig(ReconnectConfig{MaxRetries: 1, InitialBackoff: time.Millisecond})

	if err := client.ConnectWithRetry(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client.IsConnected() {
		t.Error("expected client to report connected")
	}
	client.Close()
}

// TestStatsAPIClientFetchGameLogs tests fetching and normalizing game logs
func TestStatsAPIClientFetchGameLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"playerId":"p1","gameDate":"2024-01-10","teamId":"BOS","opponentId":"MIA","minutes":"34:30","totalRebounds":11,"venue":"home"},
			{"playerId":"p2","gameDate":"2024-01-10","teamId":"MIA","opponentId":"BOS","minutes":"28.0","totalRebounds":6,"venue":"away","injuryDesignation":true}
		]`))
	}))
	defer server.Close()

	httpClient := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), nil)
	client := NewStatsAPIClient(httpClient, server.URL, "test-key", nil)

	rows, err := client.FetchGameLogs(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Minutes == nil || rows[0].Minutes.String() != "34.5" {
		t.Errorf("expected minutes 34.5, got %v", rows[0].Minutes)
	}
	if rows[0].Rebounds == nil || *rows[0].Rebounds != 11 {
		t.Errorf("expected 11 rebounds, got %v", rows[0].Rebounds)
	}
	if !rows[1].InjuryFlag {
		t.Error("expected injury flag on second row")
	}
}

// TestStatsAPIClientAuthFailure tests authentication error mapping
func TestStatsAPIClientAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	httpClient := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), nil)
	client := NewStatsAPIClient(httpClient, server.URL, "bad-key", nil)

	_, err := client.FetchGameLogs(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	if err == nil {
		t.Fatal("expected authentication error")
	}

	sourceErr, ok := err.(SourceError)
	if !ok {
		t.Fatalf("expected SourceError, got %T", err)
	}
	if sourceErr.Code != ErrCodeAuthenticationFailed {
		t.Errorf("expected code %s, got %s", ErrCodeAuthenticationFailed, sourceErr.Code)
	}
}
