// Package notify publica alertas de umbral de stock fuera del proceso.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const publishTimeout = 2 * time.Second

var _ inventory.AlertPublisher = (*RedisAlertPublisher)(nil)

// AlertMessage payload JSON publicado en el canal.
type AlertMessage struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Status      string          `json:"status"`
	Balance     decimal.Decimal `json:"balance"`
	Threshold   decimal.Decimal `json:"low_stock_threshold"`
	MovementID  string          `json:"movement_id"`
	At          time.Time       `json:"at"`
}

// EncodeAlert serializa la alerta tal como se publica.
func EncodeAlert(a inventory.StockAlert) ([]byte, error) {
	return json.Marshal(AlertMessage{
		ProductID:   a.ProductID,
		ProductName: a.ProductName,
		Unit:        a.Unit,
		Status:      string(a.Status),
		Balance:     a.Balance,
		Threshold:   a.Threshold,
		MovementID:  a.MovementID,
		At:          a.At.UTC(),
	})
}

// RedisAlertPublisher publica alertas LOW_STOCK / OUT_OF_STOCK por Redis Pub/Sub.
type RedisAlertPublisher struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewRedisAlertPublisher el caller conserva la propiedad del cliente.
func NewRedisAlertPublisher(client *redis.Client, channel string, log zerolog.Logger) *RedisAlertPublisher {
	return &RedisAlertPublisher{client: client, channel: channel, log: log}
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return client, nil
}

func (p *RedisAlertPublisher) Publish(ctx context.Context, alert inventory.StockAlert) error {
	data, err := EncodeAlert(alert)
	if err != nil {
		return fmt.Errorf("serializar alerta: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("publicar alerta en %s: %w", p.channel, err)
	}
	p.log.Debug().
		Str("channel", p.channel).
		Str("product_id", alert.ProductID).
		Str("status", string(alert.Status)).
		Int64("receivers", receivers).
		Msg("alerta de stock publicada")
	return nil
}
