package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/opensea-data/odv-etl/internal/config"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/observability"
	"github.com/opensea-data/odv-etl/internal/table"
	kafkago "github.com/segmentio/kafka-go"
)

// RowSchema identifies the JSON layout of published rows.
const RowSchema = "odv-row/v1"

// batchSize caps the messages handed to a single WriteMessages call.
const batchSize = 500

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes every output row to a Kafka topic as a JSON object.
// It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	station domain.Station
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, cfg.Station, clock, metrics, logger)
}

func newWriter(mw messageWriter, st domain.Station, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	return &Writer{writer: mw, station: st, clock: clock, metrics: metrics, logger: logger}
}

// Name identifies the loader in logs.
func (w *Writer) Name() string { return "kafka" }

// Load publishes the rows of tbl in order, in batches.
func (w *Writer) Load(ctx context.Context, tbl *table.Table) error {
	processedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, 0, min(tbl.Len(), batchSize))

	for r := 0; r < tbl.Len(); r++ {
		msg, err := w.rowMessage(tbl, r, processedAt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		if len(msgs) == batchSize {
			if err := w.flush(ctx, msgs); err != nil {
				return err
			}
			msgs = msgs[:0]
		}
	}
	if len(msgs) > 0 {
		if err := w.flush(ctx, msgs); err != nil {
			return err
		}
	}

	w.logger.Info("rows published", "rows", tbl.Len())
	return nil
}

func (w *Writer) flush(ctx context.Context, msgs []kafkago.Message) error {
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish rows: %w", err)
	}
	w.metrics.KafkaMessagesProduced.Add(float64(len(msgs)))
	return nil
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// rowMessage encodes row r as a JSON object keyed by column name. Missing
// values become null.
func (w *Writer) rowMessage(tbl *table.Table, r int, processedAt time.Time) (kafkago.Message, error) {
	names := tbl.Columns()
	vals := tbl.Values(r)
	obj := make(map[string]any, len(names))
	for i, name := range names {
		obj[name] = jsonValue(vals[i])
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row %d: %w", r, err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%s/%s/%d", w.station.Cruise, w.station.Name, r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "schema", Value: []byte(RowSchema)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}

func jsonValue(v table.Value) any {
	switch v.Kind() {
	case table.KindMissing:
		return nil
	case table.KindInt:
		i, _ := v.Int64()
		return i
	case table.KindFloat:
		f, _ := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	default:
		return v.String()
	}
}
