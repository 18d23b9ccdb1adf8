package datasource

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/yourusername/rebound-edge/internal/models"
)

// QuoteHandler is called for every parsed pre-game quote.
type QuoteHandler func(quote *models.MarketQuote) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// QuoteFeedClient handles the WebSocket connection to the prop quote feed.
// It delivers pre-game line updates; it is not an in-game streaming client.
type QuoteFeedClient struct {
	conn            *websocket.Conn
	url             string
	apiKey          string
	books           []string
	mu              sync.RWMutex
	isConnected     bool
	handlers        []QuoteHandler
	reconnectConfig ReconnectConfig
	lastMessageTime time.Time
	logger          *log.Logger
}

// quoteMessage is one line update on the wire
type quoteMessage struct {
	Op        string `json:"op"`
	PlayerID  string `json:"playerId"`
	GameDate  string `json:"gameDate"`
	Line      string `json:"line"`
	OverOdds  string `json:"overOdds"`
	UnderOdds string `json:"underOdds"`
	Book      string `json:"book"`
	Timestamp string `json:"timestamp"`
}

// NewQuoteFeedClient creates a new quote feed client
func NewQuoteFeedClient(url, apiKey string, books []string, logger *log.Logger) *QuoteFeedClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &QuoteFeedClient{
		url:             url,
		apiKey:          apiKey,
		books:           books,
		handlers:        make([]QuoteHandler, 0),
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// SetReconnectConfig overrides the reconnect policy. Fields left at zero keep
// their defaults.
func (c *QuoteFeedClient) SetReconnectConfig(cfg ReconnectConfig) {
	def := DefaultReconnectConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	c.mu.Lock()
	c.reconnectConfig = cfg
	c.mu.Unlock()
}

// ConnectWithRetry dials the feed, retrying failed dials with exponential
// backoff. It gives up after MaxRetries retries or when the context ends.
func (c *QuoteFeedClient) ConnectWithRetry(ctx context.Context) error {
	c.mu.RLock()
	rc := c.reconnectConfig
	c.mu.RUnlock()

	backoff := rc.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Printf("Retrying quote feed connection in %s (attempt %d/%d)", backoff, attempt, rc.MaxRetries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * rc.BackoffMultiplier)
			if backoff > rc.MaxBackoff {
				backoff = rc.MaxBackoff
			}
		}
		if lastErr = c.Connect(ctx); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("quote feed unavailable after %d attempts: %w", rc.MaxRetries+1, lastErr)
}

// Connect establishes the WebSocket connection and starts the read loop
func (c *QuoteFeedClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isConnected {
		return fmt.Errorf("already connected")
	}

	c.logger.Printf("Connecting to quote feed: %s", c.url)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to quote feed: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.lastMessageTime = time.Now()

	go c.readMessages()

	return nil
}

// Subscribe sends the subscription message for the configured books
func (c *QuoteFeedClient) Subscribe(market string) error {
	return c.sendMessage(map[string]interface{}{
		"op":     "subscribe",
		"apiKey": c.apiKey,
		"market": market,
		"books":  c.books,
	})
}

// AddHandler registers a quote handler
func (c *QuoteFeedClient) AddHandler(handler QuoteHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// readMessages reads messages from the WebSocket connection
func (c *QuoteFeedClient) readMessages() {
	defer c.Close()

	for {
		var msg quoteMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.logger.Printf("Error reading quote message: %v", err)
			c.mu.Lock()
			c.isConnected = false
			c.mu.Unlock()
			return
		}

		c.mu.Lock()
		c.lastMessageTime = time.Now()
		c.mu.Unlock()

		if msg.Op != "quote" {
			continue
		}

		quote, err := convertQuote(&msg)
		if err != nil {
			c.logger.Printf("Skipping malformed quote for player %s: %v", msg.PlayerID, err)
			continue
		}

		c.mu.RLock()
		handlers := c.handlers
		c.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(quote); err != nil {
				c.logger.Printf("Quote handler error: %v", err)
			}
		}
	}
}

// convertQuote parses a wire message into a MarketQuote. Lines and odds
// arrive as strings and are parsed with decimal to avoid float drift.
func convertQuote(msg *quoteMessage) (*models.MarketQuote, error) {
	gameDate, err := time.Parse("2006-01-02", msg.GameDate)
	if err != nil {
		return nil, fmt.Errorf("invalid game date %q: %w", msg.GameDate, err)
	}

	line, err := decimal.NewFromString(msg.Line)
	if err != nil {
		return nil, fmt.Errorf("invalid line %q: %w", msg.Line, err)
	}

	overOdds, err := parseOdds(msg.OverOdds)
	if err != nil {
		return nil, fmt.Errorf("invalid over odds: %w", err)
	}
	underOdds, err := parseOdds(msg.UnderOdds)
	if err != nil {
		return nil, fmt.Errorf("invalid under odds: %w", err)
	}

	quotedAt := time.Now().UTC()
	if ts, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
		quotedAt = ts
	}

	lineVal, _ := line.Float64()
	return &models.MarketQuote{
		PlayerID:  msg.PlayerID,
		GameDate:  gameDate,
		Line:      lineVal,
		OverOdds:  overOdds,
		UnderOdds: underOdds,
		Book:      msg.Book,
		QuotedAt:  quotedAt,
	}, nil
}

// parseOdds parses a wire odds string. Values with an explicit sign are
// American ("-110", "+120"); everything else is decimal ("1.91").
func parseOdds(s string) (models.Odds, error) {
	if s == "" {
		return models.Odds{}, fmt.Errorf("empty odds")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.Odds{}, fmt.Errorf("unparseable odds %q: %w", s, err)
	}
	value, _ := d.Float64()

	if s[0] == '+' || s[0] == '-' {
		return models.Odds{Format: models.OddsAmerican, Value: value}, nil
	}
	return models.Odds{Format: models.OddsDecimal, Value: value}, nil
}

// sendMessage sends a JSON message to the feed
func (c *QuoteFeedClient) sendMessage(msg interface{}) error {
	c.mu.RLock()
	if !c.isConnected || c.conn == nil {
		c.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := c.conn
	c.mu.RUnlock()

	return conn.WriteJSON(msg)
}

// IsConnected returns whether the feed is connected
func (c *QuoteFeedClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// LastMessageTime returns the time of the last received message
func (c *QuoteFeedClient) LastMessageTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMessageTime
}

// Close closes the feed connection
func (c *QuoteFeedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	c.isConnected = false
	return c.conn.Close()
}
