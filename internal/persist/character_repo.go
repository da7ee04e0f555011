package persist

import (
	"context"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/world"
)

// CharacterRepo persists character rows. Column sets are derived from the
// sealed var registry, so ruleset vars registered from scripts persist
// without repo changes as long as their columns exist.
type CharacterRepo struct {
	db     *DB
	reg    *charvar.Registry
	schema string
}

func NewCharacterRepo(db *DB, reg *charvar.Registry, schema string) *CharacterRepo {
	return &CharacterRepo{db: db, reg: reg, schema: schema}
}

func (r *CharacterRepo) SelectByOwner(ctx context.Context, owner string, specificID int32) ([]world.CharacterRow, error) {
	sql, args := restoreQuery(r.reg, r.schema, owner, specificID)
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []world.CharacterRow
	descs := rows.FieldDescriptions()
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(world.CharacterRow, len(vals))
		for i, d := range descs {
			row[string(d.Name)] = vals[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *CharacterRepo) Insert(ctx context.Context, fields map[string]any) (int32, error) {
	sql, args := insertQuery(r.schema, fields)
	var id int32
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CharacterRepo) Update(ctx context.Context, id int32, fields map[string]any) error {
	sql, args := updateQuery(id, fields)
	_, err := r.db.Pool.Exec(ctx, sql, args...)
	return err
}

func (r *CharacterRepo) Delete(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM characters WHERE id = $1`, id,
	)
	return err
}

func (r *CharacterRepo) CountByOwner(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM characters WHERE schema = $1 AND steamid = $2`,
		r.schema, owner,
	).Scan(&count)
	return count, err
}

// TouchLastJoin stamps the join timestamp when a character enters the world.
func (r *CharacterRepo) TouchLastJoin(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET last_join_at = NOW() WHERE id = $1`, id,
	)
	return err
}
