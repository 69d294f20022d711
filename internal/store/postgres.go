package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bryanfernandez-eng/linkvault/internal/model"
	"github.com/lib/pq"
)

const (
	errUniqueViolation     pq.ErrorCode = "23505"
	errForeignKeyViolation pq.ErrorCode = "23503"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresConfig holds the configuration for connecting to a Postgres database
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

// PostgresStore implements the Store interface using a Postgres database
type PostgresStore struct {
	db dbtx
}

// NewPostgresDB creates a new Postgres database connection
func NewPostgresDB(cfg PostgresConfig) (*sql.DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DB,
		sslMode))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// NewPostgresStore creates a new PostgresStore instance
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = "id, uid, email, name, google_id, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u            model.User
		googleID     sql.NullString
		passwordHash sql.NullString
	)

	err := row.Scan(&u.ID, &u.UID, &u.Email, &u.Name, &googleID, &passwordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}

		return model.User{}, fmt.Errorf("scan user: %w", err)
	}

	u.GoogleID = googleID.String
	u.PasswordHash = passwordHash.String
	return u, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, r InsertUserRequest) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (uid, email, name, google_id, password_hash)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		 RETURNING `+userColumns,
		r.UID, r.Email, r.Name, r.GoogleID, r.PasswordHash)

	u, err := scanUser(row)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return model.User{}, ErrExists
		}

		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE google_id = $1", googleID)
	return scanUser(row)
}

const sectionColumns = "id, user_id, name, ord, created_at, updated_at"

func scanSection(row *sql.Row) (model.Section, error) {
	var sec model.Section
	err := row.Scan(&sec.ID, &sec.UserID, &sec.Name, &sec.Ord, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Section{}, ErrNotFound
		}

		return model.Section{}, fmt.Errorf("scan section: %w", err)
	}

	return sec, nil
}

func (s *PostgresStore) InsertSection(ctx context.Context, r InsertSectionRequest) (model.Section, error) {
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO sections (user_id, name, ord) VALUES ($1, $2, $3) RETURNING "+sectionColumns,
		r.UserID, r.Name, r.Ord)

	sec, err := scanSection(row)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return model.Section{}, ErrExists
		}

		return model.Section{}, fmt.Errorf("insert section: %w", err)
	}

	return sec, nil
}

func (s *PostgresStore) ListSections(ctx context.Context, userID int64) ([]model.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE user_id = $1 ORDER BY ord, id", userID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		err := rows.Scan(&sec.ID, &sec.UserID, &sec.Name, &sec.Ord, &sec.CreatedAt, &sec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}

		sections = append(sections, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}

	return sections, nil
}

func (s *PostgresStore) GetSection(ctx context.Context, r SectionRef) (model.Section, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	return scanSection(row)
}

func (s *PostgresStore) GetSectionByName(ctx context.Context, r GetSectionByNameRequest) (model.Section, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE user_id = $1 AND name = $2 ORDER BY id LIMIT 1",
		r.UserID, r.Name)
	return scanSection(row)
}

func (s *PostgresStore) MaxSectionOrder(ctx context.Context, userID int64) (int, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(ord), 0) FROM sections WHERE user_id = $1", userID)

	var max int
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("query max section order: %w", err)
	}

	return max, nil
}

func (s *PostgresStore) UpdateSection(ctx context.Context, r UpdateSectionRequest) (model.Section, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE sections
		 SET name = COALESCE($3, name),
		     ord = COALESCE($4, ord),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+sectionColumns,
		r.ID, r.UserID, r.Name, r.Ord)
	return scanSection(row)
}

func (s *PostgresStore) DeleteSection(ctx context.Context, r SectionRef) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sections WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStore) ReassignLinks(ctx context.Context, r ReassignLinksRequest) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE links SET section_id = $3, updated_at = now() WHERE user_id = $1 AND section_id = $2",
		r.UserID, r.FromSectionID, r.ToSectionID)
	if err != nil {
		return fmt.Errorf("reassign links: %w", err)
	}

	return nil
}

const linkColumns = "id, user_id, section_id, title, url, description, favicon_url, is_pinned, created_at, updated_at"

func scanLinkRow(row *sql.Row) (model.Link, error) {
	var (
		l         model.Link
		sectionID sql.NullInt64
		desc      sql.NullString
		favicon   sql.NullString
	)

	err := row.Scan(&l.ID, &l.UserID, &sectionID, &l.Title, &l.URL, &desc, &favicon, &l.Pinned, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Link{}, ErrNotFound
		}

		return model.Link{}, fmt.Errorf("scan link: %w", err)
	}

	l.SectionID = sectionID.Int64
	l.Description = desc.String
	l.FaviconURL = favicon.String
	return l, nil
}

func (s *PostgresStore) InsertLink(ctx context.Context, r InsertLinkRequest) (model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO links (user_id, section_id, title, url, description, favicon_url, is_pinned)
		 VALUES ($1, NULLIF($2, 0), $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		 RETURNING `+linkColumns,
		r.UserID, r.SectionID, r.Title, r.URL, r.Description, r.FaviconURL, r.Pinned)

	l, err := scanLinkRow(row)
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return model.Link{}, ErrNotFound
		}

		return model.Link{}, fmt.Errorf("insert link: %w", err)
	}

	return l, nil
}

func (s *PostgresStore) listLinks(ctx context.Context, query string, args ...any) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var (
			l         model.Link
			sectionID sql.NullInt64
			desc      sql.NullString
			favicon   sql.NullString
		)

		err := rows.Scan(&l.ID, &l.UserID, &sectionID, &l.Title, &l.URL, &desc, &favicon, &l.Pinned, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}

		l.SectionID = sectionID.Int64
		l.Description = desc.String
		l.FaviconURL = favicon.String
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	return links, nil
}

func (s *PostgresStore) ListLinks(ctx context.Context, userID int64) ([]model.Link, error) {
	return s.listLinks(ctx,
		"SELECT "+linkColumns+" FROM links WHERE user_id = $1 ORDER BY id", userID)
}

func (s *PostgresStore) ListPinnedLinks(ctx context.Context, userID int64) ([]model.Link, error) {
	return s.listLinks(ctx,
		"SELECT "+linkColumns+" FROM links WHERE user_id = $1 AND is_pinned ORDER BY id", userID)
}

func (s *PostgresStore) GetLink(ctx context.Context, r LinkRef) (model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM links WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	return scanLinkRow(row)
}

func (s *PostgresStore) UpdateLink(ctx context.Context, r UpdateLinkRequest) (model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE links
		 SET section_id = COALESCE($3, section_id),
		     title = COALESCE($4, title),
		     url = COALESCE($5, url),
		     description = COALESCE($6, description),
		     favicon_url = COALESCE($7, favicon_url),
		     is_pinned = COALESCE($8, is_pinned),
		     updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+linkColumns,
		r.ID, r.UserID, r.SectionID, r.Title, r.URL, r.Description, r.FaviconURL, r.Pinned)

	l, err := scanLinkRow(row)
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return model.Link{}, ErrNotFound
		}

		return model.Link{}, err
	}

	return l, nil
}

func (s *PostgresStore) DeleteLink(ctx context.Context, r LinkRef) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM links WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// WithinTx executes the given function within a database transaction
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		// Already inside a transaction; run in the current one.
		return fn(s)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	sx := &PostgresStore{db: tx}
	if err = fn(sx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %v after: %w", rbErr, err)
		}

		return fmt.Errorf("transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func isPqErr(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == code
}
