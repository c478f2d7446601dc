package reminder

import (
	"context"
	"errors"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/reminder"
	"snoozer/internal/db"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const MESSAGE_ID_CONSTRAINT_NAME = "reminder_message_id_idx"

const columns = `
	id, message_id, root_message_id, parent_id, owner_address, target_address,
	subject, created_at, status, due_at, secret, notes`

type PgxReminderRepository struct {
	db db.DBTX
}

func NewPgxReminderRepository(dbtx db.DBTX) *PgxReminderRepository {
	if dbtx == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &PgxReminderRepository{db: dbtx}
}

func (r *PgxReminderRepository) Create(
	ctx context.Context,
	input reminder.CreateInput,
) (rem reminder.Reminder, err error) {
	row := r.db.QueryRow(
		ctx,
		`
		INSERT INTO reminder (
			message_id, root_message_id, parent_id, owner_address, target_address,
			subject, created_at, status, due_at, secret, notes
		) VALUES ($1, COALESCE(NULLIF($2, ''), $1), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+columns,
		string(input.MessageID),
		string(input.RootMessageID),
		encodeID(input.ParentID),
		string(input.OwnerAddress),
		string(input.TargetAddress),
		input.Subject,
		input.CreatedAt,
		input.Status.String(),
		encodeOptionalTime(input.DueAt),
		[]byte(input.Secret),
		input.Notes,
	)
	rem, err = scanReminder(row)
	if db.IsUniqueViolation(err, MESSAGE_ID_CONSTRAINT_NAME) {
		return rem, reminder.ErrDuplicateMessageID
	}
	return rem, err
}

func (r *PgxReminderRepository) GetByID(ctx context.Context, id reminder.ID) (rem reminder.Reminder, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+columns+` FROM reminder WHERE id = $1`, int64(id))
	rem, err = scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return rem, reminder.ErrReminderDoesNotExist
	}
	return rem, err
}

func (r *PgxReminderRepository) GetByMessageID(
	ctx context.Context,
	messageID reminder.MessageID,
) (rem reminder.Reminder, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+columns+` FROM reminder WHERE message_id = $1`, string(messageID))
	rem, err = scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return rem, reminder.ErrReminderDoesNotExist
	}
	return rem, err
}

func (r *PgxReminderRepository) UpdateStatusConditional(
	ctx context.Context,
	input reminder.UpdateStatusInput,
) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`
		UPDATE reminder SET
			status = $3,
			due_at = CASE WHEN $4::boolean THEN $5 ELSE due_at END,
			notes = CASE WHEN $6::boolean THEN $7 ELSE notes END,
			snoozed_at = CASE WHEN $8::boolean THEN $9::timestamptz ELSE snoozed_at END
		WHERE id = $1 AND status = $2
			AND (NOT $8::boolean OR snoozed_at IS NULL)
			AND (NOT $10::boolean OR due_at <= $11::timestamptz)
		`,
		int64(input.ID),
		input.ExpectedStatus.String(),
		input.Status.String(),
		input.DoDueAtUpdate,
		encodeOptionalTime(input.DueAt),
		input.DoNotesUpdate,
		input.Notes,
		input.SnoozedAt.IsPresent,
		input.SnoozedAt.Value,
		input.DueBefore.IsPresent,
		input.DueBefore.Value,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgxReminderRepository) ReadScheduledDueBefore(
	ctx context.Context,
	ts time.Time,
	limit uint,
) ([]reminder.Reminder, error) {
	return r.query(
		ctx,
		`SELECT `+columns+` FROM reminder
		WHERE status = $1 AND due_at <= $2
		ORDER BY due_at, id
		LIMIT $3`,
		reminder.StatusScheduled.String(),
		ts,
		db.LimitOrAll(limit),
	)
}

func (r *PgxReminderRepository) ReadUnprocessed(ctx context.Context, limit uint) ([]reminder.Reminder, error) {
	return r.query(
		ctx,
		`SELECT `+columns+` FROM reminder WHERE status = $1 ORDER BY id LIMIT $2`,
		reminder.StatusUnprocessed.String(),
		db.LimitOrAll(limit),
	)
}

func (r *PgxReminderRepository) ReadByOwnerAndStatus(
	ctx context.Context,
	owner c.Email,
	status reminder.Status,
) ([]reminder.Reminder, error) {
	return r.query(
		ctx,
		`SELECT `+columns+` FROM reminder
		WHERE owner_address = $1 AND status = $2
		ORDER BY due_at NULLS LAST, id`,
		string(owner),
		status.String(),
	)
}

func (r *PgxReminderRepository) Search(
	ctx context.Context,
	owner c.Email,
	subjectLike string,
	limit uint,
) ([]reminder.Reminder, error) {
	return r.query(
		ctx,
		`SELECT `+columns+` FROM reminder
		WHERE owner_address = $1
			AND status NOT IN ($2, $3)
			AND subject ILIKE '%' || $4 || '%'
		ORDER BY id DESC
		LIMIT $5`,
		string(owner),
		reminder.StatusUnprocessed.String(),
		reminder.StatusIgnored.String(),
		escapeLike(subjectLike),
		db.LimitOrAll(limit),
	)
}

func (r *PgxReminderRepository) query(ctx context.Context, sql string, args ...interface{}) ([]reminder.Reminder, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := make([]reminder.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func scanReminder(row pgx.Row) (rem reminder.Reminder, err error) {
	var (
		id            int64
		messageID     string
		rootMessageID string
		parentID      pgtype.Int8
		ownerAddress  string
		targetAddress string
		status        string
		dueAt         pgtype.Timestamptz
		secret        []byte
	)
	err = row.Scan(
		&id,
		&messageID,
		&rootMessageID,
		&parentID,
		&ownerAddress,
		&targetAddress,
		&rem.Subject,
		&rem.CreatedAt,
		&status,
		&dueAt,
		&secret,
		&rem.Notes,
	)
	if err != nil {
		return rem, err
	}

	rem.Status, err = reminder.ParseStatus(status)
	if err != nil {
		return rem, e.NewInvalidStateErrorf("reminder %d has unknown status %q", id, status)
	}
	rem.ID = reminder.ID(id)
	rem.MessageID = reminder.MessageID(messageID)
	rem.RootMessageID = reminder.MessageID(rootMessageID)
	rem.ParentID = c.NewOptional(reminder.ID(parentID.Int), parentID.Status == pgtype.Present)
	rem.OwnerAddress = c.Email(ownerAddress)
	rem.TargetAddress = c.Email(targetAddress)
	rem.CreatedAt = rem.CreatedAt.UTC()
	rem.DueAt = c.NewOptional(dueAt.Time.UTC(), dueAt.Status == pgtype.Present)
	rem.Secret = c.Secret(secret)
	return rem, nil
}

func encodeID(id c.Optional[reminder.ID]) pgtype.Int8 {
	if !id.IsPresent {
		return pgtype.Int8{Status: pgtype.Null}
	}
	return pgtype.Int8{Int: int64(id.Value), Status: pgtype.Present}
}

func encodeOptionalTime(at c.Optional[time.Time]) pgtype.Timestamptz {
	if !at.IsPresent {
		return pgtype.Timestamptz{Status: pgtype.Null}
	}
	return pgtype.Timestamptz{Time: at.Value, Status: pgtype.Present}
}

func escapeLike(value string) string {
	escaped := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(escaped)
}
