package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rentease-backend/internal/repository"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

var knownSequences = map[string]bool{
	"order_no_seq":   true,
	"payment_no_seq": true,
}

// Next returns the next value of a database sequence. Sequences are atomic
// across connections and process instances, which is what makes the
// generated numbers collision-free under concurrent creation.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	if !knownSequences[name] {
		return 0, fmt.Errorf("unknown sequence %q", name)
	}
	var next int64
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT nextval('%s')", name)).Scan(&next)
	return next, err
}
