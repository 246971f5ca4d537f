package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	accountmodels "io.winapps.traveljournal/internal/models/account"
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

const uniqueViolation = "23505"

const entryColumns = `id::text, owner, title, description, location, media, archived, archived_at, created_at, updated_at`

// PostgresEntries stores an entry as one row; media and location live in
// JSONB columns so every mutation is a single-row write.
type PostgresEntries struct {
	pool *pgxpool.Pool
}

func NewPostgresEntries(pool *pgxpool.Pool) *PostgresEntries {
	return &PostgresEntries{pool: pool}
}

// entryWhere builds the WHERE clause for f. ok is false when f can match
// nothing, e.g. an ID that is not a UUID.
func entryWhere(f Filter) (clause string, args []interface{}, ok bool) {
	var conds []string
	argIndex := 1

	if f.ID != "" {
		if _, err := uuid.Parse(f.ID); err != nil {
			return "", nil, false
		}
		conds = append(conds, "id = $"+strconv.Itoa(argIndex))
		args = append(args, f.ID)
		argIndex++
	}
	if f.Owner != "" {
		conds = append(conds, "owner = $"+strconv.Itoa(argIndex))
		args = append(args, f.Owner)
		argIndex++
	}
	if f.Archived != nil {
		conds = append(conds, "archived = $"+strconv.Itoa(argIndex))
		args = append(args, *f.Archived)
		argIndex++
	}
	if f.ArchivedBefore != nil {
		conds = append(conds, "archived_at < $"+strconv.Itoa(argIndex))
		args = append(args, *f.ArchivedBefore)
	}

	if len(conds) == 0 {
		return "", nil, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

func encodeEntryJSON(e *entrymodels.Entry) (location interface{}, media string, err error) {
	if e.Location != nil {
		b, err := json.Marshal(e.Location)
		if err != nil {
			return nil, "", fmt.Errorf("encode location: %w", err)
		}
		location = string(b)
	}
	items := e.Media
	if items == nil {
		items = []entrymodels.Media{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, "", fmt.Errorf("encode media: %w", err)
	}
	return location, string(b), nil
}

func scanEntry(row pgx.Row) (*entrymodels.Entry, error) {
	var (
		e        entrymodels.Entry
		location []byte
		media    []byte
	)
	if err := row.Scan(&e.ID, &e.Owner, &e.Title, &e.Description, &location, &media,
		&e.Archived, &e.ArchivedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if len(location) > 0 {
		var loc entrymodels.Location
		if err := json.Unmarshal(location, &loc); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		e.Location = &loc
	}
	e.Media = []entrymodels.Media{}
	if len(media) > 0 {
		if err := json.Unmarshal(media, &e.Media); err != nil {
			return nil, fmt.Errorf("decode media: %w", err)
		}
	}
	return &e, nil
}

func (r *PostgresEntries) Create(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	location, media, err := encodeEntryJSON(e)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO entries (owner, title, description, location, media, archived, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + entryColumns

	created, err := scanEntry(r.pool.QueryRow(ctx, query,
		e.Owner, e.Title, e.Description, location, media, e.Archived, e.ArchivedAt))
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return created, nil
}

func (r *PostgresEntries) FindOne(ctx context.Context, f Filter) (*entrymodels.Entry, error) {
	where, args, ok := entryWhere(f)
	if !ok {
		return nil, ErrNotFound
	}

	query := `SELECT ` + entryColumns + ` FROM entries` + where + ` ORDER BY created_at DESC LIMIT 1`
	e, err := scanEntry(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return e, nil
}

func (r *PostgresEntries) Find(ctx context.Context, f Filter) ([]*entrymodels.Entry, error) {
	where, args, ok := entryWhere(f)
	if !ok {
		return []*entrymodels.Entry{}, nil
	}

	query := `SELECT ` + entryColumns + ` FROM entries` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	out := []*entrymodels.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (r *PostgresEntries) Save(ctx context.Context, e *entrymodels.Entry) (*entrymodels.Entry, error) {
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, ErrNotFound
	}
	location, media, err := encodeEntryJSON(e)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE entries
		SET title = $1, description = $2, location = $3, media = $4,
			archived = $5, archived_at = $6, updated_at = NOW()
		WHERE id = $7 AND owner = $8
		RETURNING ` + entryColumns

	saved, err := scanEntry(r.pool.QueryRow(ctx, query,
		e.Title, e.Description, location, media, e.Archived, e.ArchivedAt, e.ID, e.Owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return saved, nil
}

func (r *PostgresEntries) DeleteOne(ctx context.Context, f Filter) error {
	where, args, ok := entryWhere(f)
	if !ok || where == "" {
		return ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM entries`+where, args...)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type PostgresUsers struct {
	pool *pgxpool.Pool
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool}
}

const userColumns = `id::text, name, email, password_hash, profile_pic, created_at, updated_at`

func scanUser(row pgx.Row) (*accountmodels.User, error) {
	var u accountmodels.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresUsers) Create(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, profile_pic)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, u.ProfilePic))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *PostgresUsers) FindByID(ctx context.Context, id string) (*accountmodels.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUsers) FindByEmail(ctx context.Context, email string) (*accountmodels.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUsers) findOne(ctx context.Context, query string, arg string) (*accountmodels.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *PostgresUsers) Save(ctx context.Context, u *accountmodels.User) (*accountmodels.User, error) {
	if _, err := uuid.Parse(u.ID); err != nil {
		return nil, ErrNotFound
	}

	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, profile_pic = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + userColumns

	saved, err := scanUser(r.pool.QueryRow(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.ProfilePic, time.Now().UTC(), u.ID))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case isUniqueViolation(err):
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return saved, nil
}
