// Package audit appends human-readable records of state-changing actions
// and fans them out to Kafka. Both sinks are an observability side
// channel, not part of the consistency boundary: callers record strictly
// after their transaction commits, and a failed write here is logged and
// forgotten.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Trail struct {
	DB       *bun.DB
	Producer Publisher
	Topic    string
	Logger   *logger.Logger
}

func NewTrail(bunDB *bun.DB, producer Publisher, topic string, log *logger.Logger) *Trail {
	return &Trail{DB: bunDB, Producer: producer, Topic: topic, Logger: log}
}

// Record appends one audit row and publishes it. Fire and forget.
func (t *Trail) Record(ctx context.Context, actor, action, details string) {
	record := &models.AuditRecord{
		Actor:     actor,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}

	if _, err := t.DB.NewInsert().Model(record).Exec(ctx); err != nil {
		t.Logger.Error("AUDIT", fmt.Sprintf("failed to append audit record %s/%s: %v", actor, action, err))
	}

	if t.Producer == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Logger.Error("AUDIT", fmt.Sprintf("failed to marshal audit record: %v", err))
		return
	}
	if err := t.Producer.Publish(t.Topic, action, payload); err != nil {
		t.Logger.Warn("AUDIT", fmt.Sprintf("failed to publish audit event %s: %v", action, err))
	}
}
