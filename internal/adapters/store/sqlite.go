// Package store provides SQLite-backed persistence for users,
// projects, permission records and chat messages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aeroplan/collab/internal/domain"
)

var ErrNotFound = errors.New("store: not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open DB: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable FK: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		screenname TEXT    NOT NULL CHECK(length(screenname) > 0 AND length(screenname) <= 64),
		emailid    TEXT    NOT NULL UNIQUE,
		password   TEXT    NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT    NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS permissions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		u_id         INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		p_id         INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		access_level TEXT    NOT NULL DEFAULT 'viewer',
		UNIQUE(u_id, p_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		u_id       INTEGER NOT NULL REFERENCES users(id),
		p_id       INTEGER NOT NULL REFERENCES projects(id),
		text       TEXT    NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_project ON messages(p_id, created_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, screenname, email, passwordHash string) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (screenname, emailid, password) VALUES (?, ?, ?)`,
		screenname, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create user id: %w", err)
	}
	return &domain.User{ID: domain.UserID(id), Screenname: screenname, Email: email, PasswordHash: passwordHash}, nil
}

func (s *Store) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, screenname, emailid, password FROM users WHERE id = ?`, int64(id))
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, screenname, emailid, password FROM users WHERE emailid = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var id int64
	err := row.Scan(&id, &u.Screenname, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("store: create project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create project id: %w", err)
	}
	return &domain.Project{ID: domain.ProjectIDFromInt(id), Name: name}, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, domain.Project{ID: domain.ProjectIDFromInt(id), Name: name})
	}
	return out, rows.Err()
}

// SetPermission inserts or updates the single record for the pair.
func (s *Store) SetPermission(ctx context.Context, uid domain.UserID, pid domain.ProjectID, level domain.AccessLevel) error {
	p, ok := pid.Int()
	if !ok {
		return fmt.Errorf("store: set permission: bad project id %q", pid)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permissions (u_id, p_id, access_level) VALUES (?, ?, ?)
		ON CONFLICT(u_id, p_id) DO UPDATE SET access_level = excluded.access_level`,
		int64(uid), p, level.String())
	if err != nil {
		return fmt.Errorf("store: set permission: %w", err)
	}
	return nil
}

func (s *Store) PermissionsForUser(ctx context.Context, uid domain.UserID) ([]domain.Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u_id, p_id, access_level FROM permissions WHERE u_id = ?`, int64(uid))
	if err != nil {
		return nil, fmt.Errorf("store: permissions for user: %w", err)
	}
	defer rows.Close()

	var out []domain.Permission
	for rows.Next() {
		rec, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PermissionFor(ctx context.Context, uid domain.UserID, pid domain.ProjectID) (*domain.Permission, error) {
	p, ok := pid.Int()
	if !ok {
		// A non-numeric id can never match a record; absence, not error.
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT u_id, p_id, access_level FROM permissions WHERE u_id = ? AND p_id = ?`,
		int64(uid), p)
	if err != nil {
		return nil, fmt.Errorf("store: permission for: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanPermission(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanPermission(rows *sql.Rows) (domain.Permission, error) {
	var uid, p int64
	var level string
	if err := rows.Scan(&uid, &p, &level); err != nil {
		return domain.Permission{}, fmt.Errorf("store: scan permission: %w", err)
	}
	return domain.Permission{
		UserID:    domain.UserID(uid),
		ProjectID: domain.ProjectIDFromInt(p),
		Level:     domain.ParseAccessLevel(level),
	}, nil
}

func (s *Store) AddMessage(ctx context.Context, msg domain.Message) error {
	p, ok := msg.ProjectID.Int()
	if !ok {
		return fmt.Errorf("store: add message: bad project id %q", msg.ProjectID)
	}
	created := msg.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (u_id, p_id, text, created_at) VALUES (?, ?, ?, ?)`,
		int64(msg.UserID), p, msg.Text, created)
	if err != nil {
		return fmt.Errorf("store: add message: %w", err)
	}
	return nil
}

// MessagesForProject returns the archived chat history, oldest first.
func (s *Store) MessagesForProject(ctx context.Context, pid domain.ProjectID, limit int) ([]domain.Message, error) {
	p, ok := pid.Int()
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, u_id, p_id, text, created_at FROM messages
		WHERE p_id = ? ORDER BY created_at, id LIMIT ?`, p, limit)
	if err != nil {
		return nil, fmt.Errorf("store: messages for project: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var uid, pp int64
		if err := rows.Scan(&m.ID, &uid, &pp, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.UserID = domain.UserID(uid)
		m.ProjectID = domain.ProjectIDFromInt(pp)
		out = append(out, m)
	}
	return out, rows.Err()
}
