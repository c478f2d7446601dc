package owner

import (
	"context"
	"errors"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/db"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const columns = `id, address, time_zone, default_expression, secret, created_at, verified_at`

type PgxOwnerRepository struct {
	db db.DBTX
}

func NewPgxOwnerRepository(dbtx db.DBTX) *PgxOwnerRepository {
	if dbtx == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxOwnerRepository{db: dbtx}
}

func (r *PgxOwnerRepository) GetOrCreate(
	ctx context.Context,
	input owner.GetOrCreateInput,
) (o owner.Owner, created bool, err error) {
	row := r.db.QueryRow(
		ctx,
		`
		INSERT INTO owner (address, time_zone, secret, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
		RETURNING `+columns,
		string(input.Address),
		input.TimeZone,
		[]byte(input.Secret),
		input.CreatedAt,
	)
	o, err = scanOwner(row)
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return o, false, err
	}
	o, err = r.GetByAddress(ctx, input.Address)
	return o, false, err
}

func (r *PgxOwnerRepository) GetByID(ctx context.Context, id owner.ID) (o owner.Owner, err error) {
	o, err = scanOwner(r.db.QueryRow(ctx, `SELECT `+columns+` FROM owner WHERE id = $1`, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return o, owner.ErrOwnerDoesNotExist
	}
	return o, err
}

func (r *PgxOwnerRepository) GetByAddress(ctx context.Context, address c.Email) (o owner.Owner, err error) {
	o, err = scanOwner(r.db.QueryRow(ctx, `SELECT `+columns+` FROM owner WHERE address = $1`, string(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return o, owner.ErrOwnerDoesNotExist
	}
	return o, err
}

func (r *PgxOwnerRepository) SetDefaultExpression(ctx context.Context, id owner.ID, expression string) error {
	tag, err := r.db.Exec(ctx, `UPDATE owner SET default_expression = $2 WHERE id = $1`, int64(id), expression)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return owner.ErrOwnerDoesNotExist
	}
	return nil
}

func (r *PgxOwnerRepository) MarkVerified(ctx context.Context, id owner.ID, at time.Time) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE owner SET verified_at = COALESCE(verified_at, $2) WHERE id = $1`,
		int64(id),
		at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return owner.ErrOwnerDoesNotExist
	}
	return nil
}

func scanOwner(row pgx.Row) (o owner.Owner, err error) {
	var (
		id                int64
		address           string
		defaultExpression pgtype.Text
		secret            []byte
		verifiedAt        pgtype.Timestamptz
	)
	err = row.Scan(&id, &address, &o.TimeZone, &defaultExpression, &secret, &o.CreatedAt, &verifiedAt)
	if err != nil {
		return o, err
	}
	o.ID = owner.ID(id)
	o.Address = c.Email(address)
	o.DefaultExpression = c.NewOptional(defaultExpression.String, defaultExpression.Status == pgtype.Present)
	o.Secret = c.Secret(secret)
	o.CreatedAt = o.CreatedAt.UTC()
	o.VerifiedAt = c.NewOptional(verifiedAt.Time.UTC(), verifiedAt.Status == pgtype.Present)
	return o, nil
}
