package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/jhoicas/ledger-api/internal/application/aggregate"
	"github.com/jhoicas/ledger-api/internal/domain/ledger"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

const (
	publishTimeout = 5 * time.Second
	// confirmBuffer confirmaciones tardías que caben sin bloquear la conexión.
	confirmBuffer = 64
)

// Routing keys del exchange topic.
const (
	RoutingProductQuantity = "ledger.product.quantity"
	RoutingSaleTotal       = "ledger.sale.total"
)

// AggregateEvent cuerpo JSON de cada mensaje: el valor vigente de un agregado.
type AggregateEvent struct {
	EventID    string    `json:"event_id"`
	Source     string    `json:"source"`
	Aggregate  string    `json:"aggregate"`
	ID         int64     `json:"id"`
	Value      int64     `json:"value"`
	OccurredAt time.Time `json:"occurred_at"`
}

// channel lo que el publicador usa de *amqp.Channel.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publica los cambios de agregados en un exchange topic con confirmaciones del broker.
// Las publicaciones se serializan: cada una espera su confirmación antes de la siguiente.
// tag lleva el delivery tag del canal; una confirmación que llega tras el timeout de su
// mensaje se descarta por tag y nunca se atribuye al siguiente.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	confirms chan amqp.Confirmation
	tag      uint64
	exchange string
	log      *logger.Logger
	now      func() time.Time
	timeout  time.Duration
}

// NewRabbitMQPublisher conecta, abre el canal en modo confirm y declara el exchange (durable, topic).
func NewRabbitMQPublisher(url, exchange string, log *logger.Logger) (*Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: canal: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: modo confirm: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus: declarar exchange %s: %w", exchange, err)
	}
	log.Info().Str("exchange", exchange).Msg("publicador RabbitMQ listo")
	return newPublisher(ch, confirms, exchange, log, conn), nil
}

func newPublisher(ch channel, confirms chan amqp.Confirmation, exchange string, log *logger.Logger, conn *amqp.Connection) *Publisher {
	return &Publisher{conn: conn, ch: ch, confirms: confirms, exchange: exchange, log: log, now: time.Now, timeout: publishTimeout}
}

// RoutingKey routing key de un agregado; vacío si no se publica.
func RoutingKey(agg ledger.Aggregate) string {
	switch agg {
	case ledger.AggregateProductQuantity:
		return RoutingProductQuantity
	case ledger.AggregateSaleTotal:
		return RoutingSaleTotal
	}
	return ""
}

// Publish envía un mensaje por agregado tocado, con su último valor.
func (p *Publisher) Publish(ctx context.Context, source string, changes aggregate.Changes) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, c := range latest(changes) {
		key := RoutingKey(c.Aggregate)
		if key == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := AggregateEvent{
			EventID:    uuid.NewString(),
			Source:     source,
			Aggregate:  string(c.Aggregate),
			ID:         c.ID,
			Value:      c.Value,
			OccurredAt: p.now().UTC(),
		}
		if err := p.publish(ctx, key, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) publish(ctx context.Context, key string, ev AggregateEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventbus: marshal: %w", err)
	}
	err = p.ch.Publish(p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", key, err)
	}
	p.tag++
	return p.awaitConfirm(ctx, key, ev.EventID, p.tag)
}

// awaitConfirm espera la confirmación con el tag dado, descartando las tardías de
// mensajes anteriores que ya se dieron por perdidos.
func (p *Publisher) awaitConfirm(ctx context.Context, key, messageID string, tag uint64) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	for {
		select {
		case confirm, ok := <-p.confirms:
			if !ok {
				return errors.New("eventbus: canal de confirmaciones cerrado")
			}
			switch {
			case confirm.DeliveryTag < tag:
				p.log.Warn().Uint64("tag", confirm.DeliveryTag).Bool("ack", confirm.Ack).
					Msg("confirmación tardía descartada")
				continue
			case confirm.DeliveryTag > tag:
				return fmt.Errorf("eventbus: confirmación de %s perdida (esperado tag %d, llegó %d)", key, tag, confirm.DeliveryTag)
			case !confirm.Ack:
				return fmt.Errorf("eventbus: broker rechazó %s (tag %d)", key, tag)
			}
			p.log.Debug().Str("routing_key", key).Str("message_id", messageID).Msg("evento confirmado")
			return nil
		case <-timer.C:
			return fmt.Errorf("eventbus: sin confirmación para %s (tag %d)", key, tag)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cierra canal y conexión.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil && !p.conn.IsClosed() {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

// latest último valor por agregado, en orden de primera aparición.
func latest(changes aggregate.Changes) aggregate.Changes {
	out := make(aggregate.Changes, 0, len(changes))
	index := map[aggregate.Value]int{}
	for _, c := range changes {
		key := aggregate.Value{Aggregate: c.Aggregate, ID: c.ID}
		if i, ok := index[key]; ok {
			out[i].Value = c.Value
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}
