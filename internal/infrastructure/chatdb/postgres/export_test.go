package postgres

import "context"

// TruncateTelemetry empties the telemetry table between test runs.
func TruncateTelemetry(ctx context.Context, s *Store) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE telemetry_events`)
	return err
}
