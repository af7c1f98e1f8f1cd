package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	TypeAssessmentCompleted      = "assessment.completed"
	TypeRecommendationsGenerated = "recommendations.generated"
)

// AssessmentCompleted se emite tras confirmar una evaluación.
type AssessmentCompleted struct {
	AssessmentID string   `json:"assessment_id"`
	UserID       string   `json:"user_id"`
	OverallScore *float64 `json:"overall_score,omitempty"`
	TraitCount   int      `json:"trait_count"`
}

// RecommendationsGenerated se emite tras persistir un lote de recomendaciones.
type RecommendationsGenerated struct {
	AssessmentID string   `json:"assessment_id"`
	UserID       string   `json:"user_id"`
	CareerIDs    []string `json:"career_ids"`
}

// Publisher emite eventos de dominio; los fallos no deben abortar la operación que los origina.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func encode(eventType string, payload any, now time.Time) ([]byte, error) {
	return json.Marshal(envelope{Type: eventType, OccurredAt: now.UTC(), Payload: payload})
}

// AMQPPublisher publica en un exchange topic usando el tipo de evento como routing key.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

func NewAMQPPublisher(amqpURL, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(eventType, payload, time.Now())
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	// amqp.Channel no es seguro para uso concurrente.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopPublisher descarta los eventos; se usa cuando AMQP no está configurado.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
