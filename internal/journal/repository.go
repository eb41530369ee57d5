package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobledger/jobledger/internal/platform/db"
)

var (
	// ErrEntryNotFound indicates the journal entry does not exist.
	ErrEntryNotFound = errors.New("journal: entry not found")
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	GetEntry(ctx context.Context, id int64) (Entry, error)
	GetByReference(ctx context.Context, refType ReferenceType, refID, periodID int64) (Entry, error)
	ListByPeriod(ctx context.Context, periodID int64) ([]Entry, error)
	Insert(ctx context.Context, entry Entry) (Entry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetEntryForUpdate(ctx context.Context, id int64) (Entry, error)
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateStatus(ctx context.Context, id int64, status EntryStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, journal_number, accounting_period_id, project_id, entry_date, description,
reference_type, reference_id, status, created_at, updated_at`

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.JournalNumber, &e.AccountingPeriodID, &e.ProjectID, &e.EntryDate, &e.Description,
		&e.ReferenceType, &e.ReferenceID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func loadLines(ctx context.Context, q queryer, entries []Entry) ([]Entry, error) {
	for i := range entries {
		rows, err := q.Query(ctx, `
SELECT id, entry_id, line_number, gl_account_id, description, debit_amount, credit_amount
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number`, entries[i].ID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var l Line
			if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNumber, &l.GLAccountID, &l.Description, &l.DebitAmount, &l.CreditAmount); err != nil {
				rows.Close()
				return nil, err
			}
			entries[i].Lines = append(entries[i].Lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func getEntry(ctx context.Context, q queryer, query string, args ...any) (Entry, error) {
	e, err := scanEntry(q.QueryRow(ctx, query, args...))
	if err != nil {
		return Entry{}, err
	}
	withLines, err := loadLines(ctx, q, []Entry{e})
	if err != nil {
		return Entry{}, err
	}
	return withLines[0], nil
}

func insertEntry(ctx context.Context, q queryer, entry Entry) (Entry, error) {
	err := q.QueryRow(ctx, `
INSERT INTO journal_entries (journal_number, accounting_period_id, project_id, entry_date, description, reference_type, reference_id, status)
VALUES ('JE-' || to_char(nextval('journal_number_seq'), 'FM000000'), $1, $2, $3, $4, $5, $6, $7)
RETURNING id, journal_number, created_at, updated_at`,
		entry.AccountingPeriodID, entry.ProjectID, entry.EntryDate, entry.Description,
		entry.ReferenceType, entry.ReferenceID, entry.Status).
		Scan(&entry.ID, &entry.JournalNumber, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// composed again for the same source document: hand back the
			// existing entry instead of a duplicate
			return getEntry(ctx, q, `SELECT `+entryColumns+` FROM journal_entries
WHERE reference_type=$1 AND reference_id=$2 AND accounting_period_id=$3`,
				entry.ReferenceType, entry.ReferenceID, entry.AccountingPeriodID)
		}
		return Entry{}, err
	}
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.ID
		err := q.QueryRow(ctx, `
INSERT INTO journal_entry_lines (entry_id, line_number, gl_account_id, description, debit_amount, credit_amount)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			entry.ID, entry.Lines[i].LineNumber, entry.Lines[i].GLAccountID, entry.Lines[i].Description,
			entry.Lines[i].DebitAmount, entry.Lines[i].CreditAmount).Scan(&entry.Lines[i].ID)
		if err != nil {
			return Entry{}, fmt.Errorf("journal: insert line %d: %w", entry.Lines[i].LineNumber, err)
		}
	}
	return entry, nil
}

func (r *repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	return getEntry(ctx, r.db, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id)
}

func (r *repository) GetByReference(ctx context.Context, refType ReferenceType, refID, periodID int64) (Entry, error) {
	return getEntry(ctx, r.db, `SELECT `+entryColumns+` FROM journal_entries
WHERE reference_type=$1 AND reference_id=$2 AND accounting_period_id=$3`, refType, refID, periodID)
}

func (r *repository) ListByPeriod(ctx context.Context, periodID int64) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE accounting_period_id=$1 ORDER BY id`, periodID)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loadLines(ctx, r.db, out)
}

func (r *repository) Insert(ctx context.Context, entry Entry) (Entry, error) {
	var out Entry
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.InsertEntry(ctx, entry)
		return err
	})
	return out, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return getEntry(ctx, r.tx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	return insertEntry(ctx, r.tx, entry)
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status EntryStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
