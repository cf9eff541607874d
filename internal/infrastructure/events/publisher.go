package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// TrendEventType is the type field of stream messages.
const TrendEventType = "trends.updated"

// TrendEvent is the payload pushed to stream clients and over nats.
type TrendEvent struct {
	Type      string           `json:"type"`
	UserID    string           `json:"user_id"`
	Trends    []TrendEventItem `json:"trends"`
	Timestamp time.Time        `json:"timestamp"`
}

// TrendEventItem is the compact view of one trend.
type TrendEventItem struct {
	Topic         string  `json:"topic"`
	Summary       string  `json:"summary"`
	MomentumScore float64 `json:"momentum_score"`
	MentionsCount int     `json:"mentions_count"`
}

// Publisher implements application.TrendPublisher.
// with nats every replica receives the event and forwards it to its own
// websocket clients, without nats events go to the local hub directly.
type Publisher struct {
	hub     *Hub
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
	logger  *logging.Logger
}

// NewPublisher creates a publisher. nc may be nil.
func NewPublisher(hub *Hub, nc *nats.Conn, subject string, logger *logging.Logger) *Publisher {
	return &Publisher{
		hub:     hub,
		nc:      nc,
		subject: subject,
		logger:  logger.WithComponent("trend_publisher"),
	}
}

// Start subscribes to trend events of all users and feeds the hub.
// no-op without nats.
func (p *Publisher) Start() error {
	if p.nc == nil {
		return nil
	}

	sub, err := p.nc.Subscribe(p.subject+".*", func(msg *nats.Msg) {
		userID := strings.TrimPrefix(msg.Subject, p.subject+".")
		p.hub.Broadcast(userID, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", p.subject, err)
	}
	p.sub = sub

	p.logger.Info("trend event bridge started", "subject", p.subject+".*")
	return nil
}

// Stop drains the nats subscription.
func (p *Publisher) Stop() {
	if p.sub == nil {
		return
	}
	if err := p.sub.Drain(); err != nil {
		p.logger.Warn("trend event bridge drain failed", "error", err.Error())
	}
}

// PublishTrends sends the fresh trends of a user.
func (p *Publisher) PublishTrends(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error {
	data, err := json.Marshal(NewTrendEvent(userID, analyses, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("encoding trend event: %w", err)
	}

	if p.nc != nil {
		if err := p.nc.Publish(p.subject+"."+userID.String(), data); err != nil {
			return fmt.Errorf("publishing trend event: %w", err)
		}
		return nil
	}

	p.hub.Broadcast(userID.String(), data)
	return nil
}

// NewTrendEvent builds the stream payload.
func NewTrendEvent(userID domain.UserID, analyses []domain.TrendAnalysis, at time.Time) TrendEvent {
	items := make([]TrendEventItem, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, TrendEventItem{
			Topic:         a.Topic,
			Summary:       a.Summary,
			MomentumScore: a.MomentumScore.Value(),
			MentionsCount: a.Metrics.MentionsCount,
		})
	}
	return TrendEvent{
		Type:      TrendEventType,
		UserID:    userID.String(),
		Trends:    items,
		Timestamp: at,
	}
}

// ConnectNATS dials nats with reconnect handling that logs through logger.
func ConnectNATS(url string, logger *logging.Logger) (*nats.Conn, error) {
	l := logger.WithComponent("nats")

	options := []nats.Option{
		nats.Name("creatorpulse"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				l.Warn("nats disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			l.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return nc, nil
}
