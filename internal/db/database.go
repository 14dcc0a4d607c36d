package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

type Database struct {
	db  *sql.DB
	log zerolog.Logger
}

type Room struct {
	ID        string
	Creator   string
	CreatedAt time.Time
}

func New(dbPath string, log zerolog.Logger) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log = log.With().Str("component", "db").Logger()
	log.Info().Str("path", dbPath).Msg("database initialized")
	return &Database{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		creator TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS room_members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (room_id, user_id),
		FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_room_members_room_id ON room_members(room_id);

	CREATE TABLE IF NOT EXISTS documents (
		room_id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Room operations

func (d *Database) CreateRoom(id, creator string) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO rooms (id, creator) VALUES (?, ?)",
		id, creator,
	)
	return err
}

func (d *Database) GetRoom(id string) (*Room, error) {
	row := d.db.QueryRow(
		"SELECT id, creator, created_at FROM rooms WHERE id = ?",
		id,
	)

	var room Room
	err := row.Scan(&room.ID, &room.Creator, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// AddMember records a user's membership in a room. Re-joining is not an
// error: the existing row is kept.
func (d *Database) AddMember(roomID, userID string) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO room_members (room_id, user_id) VALUES (?, ?)",
		roomID, userID,
	)
	return err
}

func (d *Database) GetMemberCount(roomID string) (int, error) {
	var count int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM room_members WHERE room_id = ?",
		roomID,
	).Scan(&count)
	return count, err
}

// Document operations

// SaveDocument upserts the room's full document text. Last write wins.
func (d *Database) SaveDocument(roomID, code string) error {
	_, err := d.db.Exec(`
		INSERT INTO documents (room_id, code, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_id) DO UPDATE SET
			code = excluded.code,
			updated_at = CURRENT_TIMESTAMP
	`, roomID, code)
	return err
}

// LoadDocument returns the stored text for the room, ok=false when the
// room has never been saved.
func (d *Database) LoadDocument(roomID string) (string, bool, error) {
	var code string
	err := d.db.QueryRow(
		"SELECT code FROM documents WHERE room_id = ?",
		roomID,
	).Scan(&code)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

// Stats

func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var roomCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&roomCount); err != nil {
		return nil, err
	}
	stats["room_count"] = roomCount

	var documentCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&documentCount); err != nil {
		return nil, err
	}
	stats["document_count"] = documentCount

	return stats, nil
}
