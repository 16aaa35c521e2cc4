package build

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepo persists builds in SQLite. Slices and maps are stored as JSON
// text columns; the owner column carries a secondary index for per-player
// listings.
type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open build db: %w", err)
	}

	// WAL for concurrent readers while one writer commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	r := &SQLiteRepo{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

func (r *SQLiteRepo) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			locked INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			character_ids TEXT NOT NULL,
			disc_ids TEXT NOT NULL,
			char_potentials TEXT NOT NULL DEFAULT '{}',
			potentials TEXT NOT NULL DEFAULT '{}',
			sub_notes TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_player ON builds(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_builds_player_score ON builds(player_id, score DESC)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("build migration failed: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepo) Save(ctx context.Context, b Build) error {
	chars, err := json.Marshal(b.CharacterIDs)
	if err != nil {
		return err
	}
	discs, err := json.Marshal(b.DiscIDs)
	if err != nil {
		return err
	}
	charPots, err := marshalCounts(b.CharPotentials)
	if err != nil {
		return err
	}
	pots, err := marshalCounts(b.Potentials)
	if err != nil {
		return err
	}
	subs, err := marshalCounts(b.SubNotes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO builds (id, player_id, name, locked, score, character_ids, disc_ids, char_potentials, potentials, sub_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			locked = excluded.locked,
			score = excluded.score,
			character_ids = excluded.character_ids,
			disc_ids = excluded.disc_ids,
			char_potentials = excluded.char_potentials,
			potentials = excluded.potentials,
			sub_notes = excluded.sub_notes`,
		b.ID, b.PlayerID, b.Name, boolToInt(b.Locked), b.Score,
		string(chars), string(discs), charPots, pots, subs, b.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save build %s: %w", b.ID, err)
	}
	return nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (Build, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, player_id, name, locked, score, character_ids, disc_ids, char_potentials, potentials, sub_notes, created_at
		FROM builds WHERE id = ?`, id)

	b, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, fmt.Errorf("get build %s: %w", id, err)
	}
	return b, true, nil
}

func (r *SQLiteRepo) ListByOwner(ctx context.Context, playerID string) ([]Build, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, player_id, name, locked, score, character_ids, disc_ids, char_potentials, potentials, sub_notes, created_at
		FROM builds WHERE player_id = ? ORDER BY score DESC, id ASC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	out := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountByOwner(ctx context.Context, playerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM builds WHERE player_id = ?`, playerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count builds: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete build %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (Build, error) {
	var (
		b         Build
		locked    int
		chars     string
		discs     string
		charPots  string
		pots      string
		subs      string
		createdAt time.Time
	)
	err := row.Scan(&b.ID, &b.PlayerID, &b.Name, &locked, &b.Score,
		&chars, &discs, &charPots, &pots, &subs, &createdAt)
	if err != nil {
		return Build{}, err
	}

	b.Locked = locked != 0
	b.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(chars), &b.CharacterIDs); err != nil {
		return Build{}, err
	}
	if err := json.Unmarshal([]byte(discs), &b.DiscIDs); err != nil {
		return Build{}, err
	}
	if b.CharPotentials, err = unmarshalCounts(charPots); err != nil {
		return Build{}, err
	}
	if b.Potentials, err = unmarshalCounts(pots); err != nil {
		return Build{}, err
	}
	if b.SubNotes, err = unmarshalCounts(subs); err != nil {
		return Build{}, err
	}
	return b, nil
}

func marshalCounts(m map[int32]int32) (string, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalCounts(s string) (map[int32]int32, error) {
	if s == "" {
		return map[int32]int32{}, nil
	}
	out := map[int32]int32{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
