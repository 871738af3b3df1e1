package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/funvibe/pyretscan/internal/scanner"
	"github.com/funvibe/pyretscan/internal/token"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session    TEXT    NOT NULL,
	pos        INTEGER NOT NULL,
	state      BLOB    NOT NULL,
	prev_kind  TEXT    NOT NULL,
	prev_start INTEGER NOT NULL,
	prev_end   INTEGER NOT NULL,
	decided    INTEGER NOT NULL,
	candidates TEXT    NOT NULL,
	after      BLOB,
	symbol     INTEGER NOT NULL,
	produced   INTEGER NOT NULL,
	tok_start  INTEGER NOT NULL,
	tok_end    INTEGER NOT NULL,
	PRIMARY KEY (session, pos)
)`

const columns = `pos, state, prev_kind, prev_start, prev_end,
	decided, candidates, after, symbol, produced, tok_start, tok_end`

// SQLiteStore keeps checkpoints in a SQLite database file, so that states
// survive the process that produced them.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint db %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating checkpoint schema in %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session string, cp Checkpoint) error {
	var (
		decided, produced int
		cands             string
		after             []byte
		sym, start, end   int
	)
	if d := cp.Decision; d != nil {
		decided = 1
		cands = candidateNames(d.Candidates)
		after = d.After.Bytes()
		sym, start, end = int(d.Symbol), d.Start, d.End
		if d.Produced {
			produced = 1
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints (session, `+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session, cp.Offset, cp.State, string(cp.Prev.Type), cp.Prev.Start, cp.Prev.End,
		decided, cands, after, sym, produced, start, end)
	if err != nil {
		return fmt.Errorf("saving checkpoint %s@%d: %w", session, cp.Offset, err)
	}
	return nil
}

func (s *SQLiteStore) Nearest(ctx context.Context, session string, offset int) (Checkpoint, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM checkpoints WHERE session = ? AND pos <= ? ORDER BY pos DESC LIMIT 1`,
		session, offset)
	cp, err := scanCheckpoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("loading checkpoint %s@%d: %w", session, offset, err)
	}
	return cp, true, nil
}

func (s *SQLiteStore) History(ctx context.Context, session string, offset int) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM checkpoints WHERE session = ? AND pos <= ? ORDER BY pos`,
		session, offset)
	if err != nil {
		return nil, fmt.Errorf("loading history %s@%d: %w", session, offset, err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("loading history %s@%d: %w", session, offset, err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading history %s@%d: %w", session, offset, err)
	}
	return out, nil
}

func (s *SQLiteStore) Truncate(ctx context.Context, session string, from int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE session = ? AND pos >= ?`, session, from)
	if err != nil {
		return fmt.Errorf("truncating checkpoints %s@%d: %w", session, from, err)
	}
	return nil
}

func (s *SQLiteStore) Drop(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session = ?`, session); err != nil {
		return fmt.Errorf("dropping session %s: %w", session, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(r rowScanner) (Checkpoint, error) {
	var (
		cp                Checkpoint
		kind, cands       string
		decided, produced int
		after             []byte
		sym, start, end   int
	)
	err := r.Scan(&cp.Offset, &cp.State, &kind, &cp.Prev.Start, &cp.Prev.End,
		&decided, &cands, &after, &sym, &produced, &start, &end)
	if err != nil {
		return Checkpoint{}, err
	}
	cp.Prev.Type = token.TokenType(kind)
	if decided != 0 {
		set, _ := scanner.ParseCandidates(strings.Split(cands, ","))
		cp.Decision = &scanner.Decision{
			Offset:     cp.Offset,
			Start:      start,
			End:        end,
			Candidates: set,
			Before:     scanner.Deserialize(cp.State),
			After:      scanner.Deserialize(after),
			Symbol:     scanner.Symbol(sym),
			Produced:   produced != 0,
		}
	}
	return cp, nil
}

func candidateNames(c scanner.CandidateSet) string {
	syms := c.Symbols()
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}
