// Package webhook pushes completed-calculation summaries onto NATS so
// downstream tooling (CRM sync, quote generators) can react without
// polling the API.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/technosupport/ts-sizer/internal/calc"
)

// ResultEvent is the wire payload; a trimmed view of the full result so
// subscribers do not depend on internal calculation detail.
type ResultEvent struct {
	ID            string    `json:"id"`
	ProjectName   string    `json:"project_name"`
	CreatedAt     time.Time `json:"created_at"`
	TotalDevices  int       `json:"total_devices"`
	ServersNeeded int       `json:"servers_needed"`
	StorageGB     float64   `json:"storage_gb"`
	Feasible      bool      `json:"feasible"`
}

type NATSPublisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
	dedup      *ResultDedup
}

func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int, dedup *ResultDedup) *NATSPublisher {
	return &NATSPublisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
		dedup:      dedup,
	}
}

func (p *NATSPublisher) PublishResult(result *calc.CalculationResult) error {
	if p.dedup != nil && p.dedup.IsDuplicate(result.ID.String()) {
		return nil
	}

	event := ResultEvent{
		ID:            result.ID.String(),
		ProjectName:   result.ProjectName,
		CreatedAt:     result.CreatedAt,
		TotalDevices:  result.TotalDevices,
		ServersNeeded: result.Servers.ServersNeeded,
		StorageGB:     result.Storage.RawNeededGB,
		Feasible:      result.Feasible,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(p.subject, data)
		if err == nil {
			return nil
		}

		// Backoff
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}

	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
