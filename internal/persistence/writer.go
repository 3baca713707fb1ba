package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OpLogWriter writes operations and receipts to Postgres using batch
// inserts. Multi-row INSERT is used as a portable alternative to the COPY
// protocol; switch to pgx CopyFrom if write throughput becomes a limit.
type OpLogWriter struct {
	db           *sql.DB
	batchSize    int
	flushTimeout time.Duration
}

// OpRow represents a row in op_log.operations
type OpRow struct {
	Sequence       int64
	OpType         string
	IdempotencyKey string
	Caller         string
	Height         int64
	Payload        []byte // JSON-encoded operation payload
	StateHash      []byte
	PrevHash       []byte
	Timestamp      time.Time
	SourceSequence int64
}

// ReceiptRow represents a row in op_log.receipts
type ReceiptRow struct {
	OpID     string
	Sequence int64
	OpType   string
	Caller   string
	Height   int64
	Status   string
	Code     int32
	Result   int64
	Message  string
}

func NewOpLogWriter(db *sql.DB, batchSize int, flushTimeout time.Duration) *OpLogWriter {
	return &OpLogWriter{
		db:           db,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
	}
}

// WriteOpBatch writes a batch of operations to op_log.operations inside tx.
func (w *OpLogWriter) WriteOpBatch(ctx context.Context, tx *sql.Tx, ops []OpRow) error {
	if len(ops) == 0 {
		return nil
	}

	query := `INSERT INTO op_log.operations
		(sequence, op_type, idempotency_key, caller, height, payload, state_hash, prev_hash, timestamp, source_sequence)
		VALUES `

	values := make([]string, 0, len(ops))
	args := make([]interface{}, 0, len(ops)*10)

	for i, o := range ops {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			o.Sequence, o.OpType, o.IdempotencyKey, o.Caller, o.Height,
			o.Payload, o.StateHash, o.PrevHash, o.Timestamp, o.SourceSequence,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING" // Idempotent writes

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteReceiptBatch writes a batch of receipts to op_log.receipts inside tx.
func (w *OpLogWriter) WriteReceiptBatch(ctx context.Context, tx *sql.Tx, receipts []ReceiptRow) error {
	if len(receipts) == 0 {
		return nil
	}

	query := `INSERT INTO op_log.receipts
		(op_id, sequence, op_type, caller, height, status, code, result, message)
		VALUES `

	values := make([]string, 0, len(receipts))
	args := make([]interface{}, 0, len(receipts)*9)

	for i, r := range receipts {
		base := i * 9
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args,
			r.OpID, r.Sequence, r.OpType, r.Caller, r.Height,
			r.Status, r.Code, r.Result, r.Message,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (op_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// MarshalOpPayload serializes an operation payload to JSON for storage.
func MarshalOpPayload(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}
