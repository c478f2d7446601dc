package sqlite

import (
	"context"
	"database/sql"
	"errors"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/reminder"
	"time"

	"github.com/jmoiron/sqlx"
)

const reminderColumns = `
	id, message_id, root_message_id, parent_id, owner_address, target_address,
	subject, created_at, status, due_at, secret, notes`

type reminderRow struct {
	ID            int64         `db:"id"`
	MessageID     string        `db:"message_id"`
	RootMessageID string        `db:"root_message_id"`
	ParentID      sql.NullInt64 `db:"parent_id"`
	OwnerAddress  string        `db:"owner_address"`
	TargetAddress string        `db:"target_address"`
	Subject       string        `db:"subject"`
	CreatedAt     int64         `db:"created_at"`
	Status        string        `db:"status"`
	DueAt         sql.NullInt64 `db:"due_at"`
	Secret        []byte        `db:"secret"`
	Notes         string        `db:"notes"`
}

func (row reminderRow) decode() (rem reminder.Reminder, err error) {
	status, err := reminder.ParseStatus(row.Status)
	if err != nil {
		return rem, e.NewInvalidStateErrorf("reminder %d has unknown status %q", row.ID, row.Status)
	}
	rem = reminder.Reminder{
		ID:            reminder.ID(row.ID),
		MessageID:     reminder.MessageID(row.MessageID),
		RootMessageID: reminder.MessageID(row.RootMessageID),
		ParentID:      c.NewOptional(reminder.ID(row.ParentID.Int64), row.ParentID.Valid),
		OwnerAddress:  c.Email(row.OwnerAddress),
		TargetAddress: c.Email(row.TargetAddress),
		Subject:       row.Subject,
		CreatedAt:     decodeTime(row.CreatedAt),
		Status:        status,
		Secret:        c.Secret(row.Secret),
		Notes:         row.Notes,
	}
	if row.DueAt.Valid {
		rem.DueAt = c.NewOptional(decodeTime(row.DueAt.Int64), true)
	}
	return rem, nil
}

// ext is satisfied by both *sqlx.DB and *sqlx.Tx.
type ext interface {
	sqlx.ExtContext
}

type SqlxReminderRepository struct {
	db ext
}

func NewSqlxReminderRepository(db ext) *SqlxReminderRepository {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	return &SqlxReminderRepository{db: db}
}

func (r *SqlxReminderRepository) Create(ctx context.Context, input reminder.CreateInput) (rem reminder.Reminder, err error) {
	rootMessageID := input.RootMessageID
	if rootMessageID == "" {
		rootMessageID = input.MessageID
	}
	var row reminderRow
	err = sqlx.GetContext(
		ctx,
		r.db,
		&row,
		`INSERT INTO reminder (
			message_id, root_message_id, parent_id, owner_address, target_address,
			subject, created_at, status, due_at, secret, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+reminderColumns,
		string(input.MessageID),
		string(rootMessageID),
		sql.NullInt64{Int64: int64(input.ParentID.Value), Valid: input.ParentID.IsPresent},
		string(input.OwnerAddress),
		string(input.TargetAddress),
		input.Subject,
		encodeTime(input.CreatedAt),
		input.Status.String(),
		encodeOptionalTime(input.DueAt),
		[]byte(input.Secret),
		input.Notes,
	)
	if isUniqueViolation(err) {
		return rem, reminder.ErrDuplicateMessageID
	}
	if err != nil {
		return rem, err
	}
	return row.decode()
}

func (r *SqlxReminderRepository) GetByID(ctx context.Context, id reminder.ID) (reminder.Reminder, error) {
	return r.get(ctx, `SELECT `+reminderColumns+` FROM reminder WHERE id = ?`, int64(id))
}

func (r *SqlxReminderRepository) GetByMessageID(ctx context.Context, messageID reminder.MessageID) (reminder.Reminder, error) {
	return r.get(ctx, `SELECT `+reminderColumns+` FROM reminder WHERE message_id = ?`, string(messageID))
}

func (r *SqlxReminderRepository) UpdateStatusConditional(ctx context.Context, input reminder.UpdateStatusInput) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE reminder SET
			status = ?,
			due_at = CASE WHEN ? THEN ? ELSE due_at END,
			notes = CASE WHEN ? THEN ? ELSE notes END,
			snoozed_at = CASE WHEN ? THEN ? ELSE snoozed_at END
		WHERE id = ? AND status = ?
			AND (NOT ? OR snoozed_at IS NULL)
			AND (NOT ? OR due_at <= ?)`,
		input.Status.String(),
		input.DoDueAtUpdate,
		encodeOptionalTime(input.DueAt),
		input.DoNotesUpdate,
		input.Notes,
		input.SnoozedAt.IsPresent,
		encodeTime(input.SnoozedAt.Value),
		int64(input.ID),
		input.ExpectedStatus.String(),
		input.SnoozedAt.IsPresent,
		input.DueBefore.IsPresent,
		encodeTime(input.DueBefore.Value),
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *SqlxReminderRepository) ReadScheduledDueBefore(ctx context.Context, ts time.Time, limit uint) ([]reminder.Reminder, error) {
	return r.selectReminders(
		ctx,
		`SELECT `+reminderColumns+` FROM reminder
		WHERE status = ? AND due_at <= ?
		ORDER BY due_at, id
		LIMIT ?`,
		reminder.StatusScheduled.String(),
		encodeTime(ts),
		limitOrAll(limit),
	)
}

func (r *SqlxReminderRepository) ReadUnprocessed(ctx context.Context, limit uint) ([]reminder.Reminder, error) {
	return r.selectReminders(
		ctx,
		`SELECT `+reminderColumns+` FROM reminder WHERE status = ? ORDER BY id LIMIT ?`,
		reminder.StatusUnprocessed.String(),
		limitOrAll(limit),
	)
}

func (r *SqlxReminderRepository) ReadByOwnerAndStatus(
	ctx context.Context,
	owner c.Email,
	status reminder.Status,
) ([]reminder.Reminder, error) {
	return r.selectReminders(
		ctx,
		`SELECT `+reminderColumns+` FROM reminder
		WHERE owner_address = ? AND status = ?
		ORDER BY due_at IS NULL, due_at, id`,
		string(owner),
		status.String(),
	)
}

func (r *SqlxReminderRepository) Search(
	ctx context.Context,
	owner c.Email,
	subjectLike string,
	limit uint,
) ([]reminder.Reminder, error) {
	return r.selectReminders(
		ctx,
		`SELECT `+reminderColumns+` FROM reminder
		WHERE owner_address = ?
			AND status NOT IN (?, ?)
			AND instr(lower(subject), lower(?)) > 0
		ORDER BY id DESC
		LIMIT ?`,
		string(owner),
		reminder.StatusUnprocessed.String(),
		reminder.StatusIgnored.String(),
		subjectLike,
		limitOrAll(limit),
	)
}

func (r *SqlxReminderRepository) get(ctx context.Context, query string, args ...interface{}) (rem reminder.Reminder, err error) {
	var row reminderRow
	err = sqlx.GetContext(ctx, r.db, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return rem, reminder.ErrReminderDoesNotExist
	}
	if err != nil {
		return rem, err
	}
	return row.decode()
}

func (r *SqlxReminderRepository) selectReminders(ctx context.Context, query string, args ...interface{}) ([]reminder.Reminder, error) {
	var rows []reminderRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	reminders := make([]reminder.Reminder, 0, len(rows))
	for _, row := range rows {
		rem, err := row.decode()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}

func encodeOptionalTime(at c.Optional[time.Time]) sql.NullInt64 {
	return sql.NullInt64{Int64: encodeTime(at.Value), Valid: at.IsPresent}
}
