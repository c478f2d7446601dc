package sqlite

import (
	"context"
	"database/sql"
	"errors"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/owner"
	"time"

	"github.com/jmoiron/sqlx"
)

const ownerColumns = `id, address, time_zone, default_expression, secret, created_at, verified_at`

type ownerRow struct {
	ID                int64          `db:"id"`
	Address           string         `db:"address"`
	TimeZone          string         `db:"time_zone"`
	DefaultExpression sql.NullString `db:"default_expression"`
	Secret            []byte         `db:"secret"`
	CreatedAt         int64          `db:"created_at"`
	VerifiedAt        sql.NullInt64  `db:"verified_at"`
}

func (row ownerRow) decode() owner.Owner {
	o := owner.Owner{
		ID:                owner.ID(row.ID),
		Address:           c.Email(row.Address),
		TimeZone:          row.TimeZone,
		DefaultExpression: c.NewOptional(row.DefaultExpression.String, row.DefaultExpression.Valid),
		Secret:            c.Secret(row.Secret),
		CreatedAt:         decodeTime(row.CreatedAt),
	}
	if row.VerifiedAt.Valid {
		o.VerifiedAt = c.NewOptional(decodeTime(row.VerifiedAt.Int64), true)
	}
	return o
}

type SqlxOwnerRepository struct {
	db ext
}

func NewSqlxOwnerRepository(db ext) *SqlxOwnerRepository {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &SqlxOwnerRepository{db: db}
}

func (r *SqlxOwnerRepository) GetOrCreate(
	ctx context.Context,
	input owner.GetOrCreateInput,
) (o owner.Owner, created bool, err error) {
	var row ownerRow
	err = sqlx.GetContext(
		ctx,
		r.db,
		&row,
		`INSERT INTO owner (address, time_zone, secret, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
		RETURNING `+ownerColumns,
		string(input.Address),
		input.TimeZone,
		[]byte(input.Secret),
		encodeTime(input.CreatedAt),
	)
	if err == nil {
		return row.decode(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return o, false, err
	}
	o, err = r.GetByAddress(ctx, input.Address)
	return o, false, err
}

func (r *SqlxOwnerRepository) GetByID(ctx context.Context, id owner.ID) (owner.Owner, error) {
	return r.get(ctx, `SELECT `+ownerColumns+` FROM owner WHERE id = ?`, int64(id))
}

func (r *SqlxOwnerRepository) GetByAddress(ctx context.Context, address c.Email) (owner.Owner, error) {
	return r.get(ctx, `SELECT `+ownerColumns+` FROM owner WHERE address = ?`, string(address))
}

func (r *SqlxOwnerRepository) SetDefaultExpression(ctx context.Context, id owner.ID, expression string) error {
	return r.update(ctx, `UPDATE owner SET default_expression = ? WHERE id = ?`, expression, int64(id))
}

func (r *SqlxOwnerRepository) MarkVerified(ctx context.Context, id owner.ID, at time.Time) error {
	return r.update(ctx, `UPDATE owner SET verified_at = COALESCE(verified_at, ?) WHERE id = ?`, encodeTime(at), int64(id))
}

func (r *SqlxOwnerRepository) get(ctx context.Context, query string, args ...interface{}) (o owner.Owner, err error) {
	var row ownerRow
	err = sqlx.GetContext(ctx, r.db, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return o, owner.ErrOwnerDoesNotExist
	}
	if err != nil {
		return o, err
	}
	return row.decode(), nil
}

func (r *SqlxOwnerRepository) update(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return owner.ErrOwnerDoesNotExist
	}
	return nil
}
