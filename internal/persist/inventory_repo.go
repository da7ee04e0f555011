package persist

import (
	"context"

	"github.com/chronicle-rp/server/internal/world"
)

type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

func (r *InventoryRepo) SelectByChar(ctx context.Context, charID int32) ([]world.InventoryMeta, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, COALESCE(sub_type, '') FROM inventories WHERE char_id = $1 ORDER BY id`,
		charID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []world.InventoryMeta
	for rows.Next() {
		var m world.InventoryMeta
		if err := rows.Scan(&m.ID, &m.SubType); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *InventoryRepo) Insert(ctx context.Context, charID int32, subType string) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO inventories (char_id, sub_type) VALUES ($1, $2) RETURNING id`,
		charID, subType,
	).Scan(&id)
	return id, err
}

func (r *InventoryRepo) DeleteByChar(ctx context.Context, charID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM inventories WHERE char_id = $1`, charID,
	)
	return err
}
