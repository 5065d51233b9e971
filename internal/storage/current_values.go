package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Put upserts the current value of a DataItem.
func (p *PostgresClient) Put(ctx context.Context, out observation.ObservationOutput) error {
	if out.DataItemID == "" {
		return fmt.Errorf("failed to store observation: empty dataItemId")
	}

	outputJSON, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal observation: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO current_values (id, device_uuid, data_item_id, type, sequence, output)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (device_uuid, data_item_id) DO UPDATE SET
			type = EXCLUDED.type,
			sequence = EXCLUDED.sequence,
			output = EXCLUDED.output,
			updated_at = now()
	`, uuid.New(), out.DeviceUUID, out.DataItemID, out.Type, int64(out.Sequence), outputJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert observation: %w", err)
	}
	return nil
}

func (p *PostgresClient) Get(ctx context.Context, deviceUUID, dataItemID string) (observation.ObservationOutput, error) {
	var outputJSON []byte
	err := p.pool.QueryRow(ctx, `
		SELECT output FROM current_values
		WHERE device_uuid = $1 AND data_item_id = $2
	`, deviceUUID, dataItemID).Scan(&outputJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return observation.ObservationOutput{}, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceUUID, dataItemID)
	}
	if err != nil {
		return observation.ObservationOutput{}, fmt.Errorf("failed to query observation: %w", err)
	}

	var out observation.ObservationOutput
	if err := json.Unmarshal(outputJSON, &out); err != nil {
		return observation.ObservationOutput{}, fmt.Errorf("failed to unmarshal observation: %w", err)
	}
	return out, nil
}

func (p *PostgresClient) List(ctx context.Context) ([]observation.ObservationOutput, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT output FROM current_values
		ORDER BY created_at, device_uuid, data_item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	outputs := make([]observation.ObservationOutput, 0)
	for rows.Next() {
		var outputJSON []byte
		if err := rows.Scan(&outputJSON); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		var out observation.ObservationOutput
		if err := json.Unmarshal(outputJSON, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observation: %w", err)
		}
		outputs = append(outputs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return outputs, nil
}

func (p *PostgresClient) Delete(ctx context.Context, deviceUUID, dataItemID string) error {
	result, err := p.pool.Exec(ctx, `
		DELETE FROM current_values
		WHERE device_uuid = $1 AND data_item_id = $2
	`, deviceUUID, dataItemID)
	if err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, deviceUUID, dataItemID)
	}
	return nil
}

func (p *PostgresClient) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM current_values`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return n, nil
}

var (
	_ Store = (*PostgresClient)(nil)
	_ Store = (*MemoryStore)(nil)
)
