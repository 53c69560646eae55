package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStorage = errors.New("candidate storage failure")
	// ErrDuplicateKey indica violação do UNIQUE(lastname); também casa com ErrStorage
	ErrDuplicateKey = fmt.Errorf("%w: duplicate lastname", ErrStorage)
)

// Store implementa leitura/escrita da tabela candidate
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema cria a tabela se não existir (executado no bootstrap)
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", ErrStorage, err)
		}
	}
	return nil
}

// ListAll devolve todas as linhas; lastname é CHAR(45), então o padding é removido no SELECT
func (s *Store) ListAll(ctx context.Context) ([]Candidate, error) {
	const q = `
		SELECT candidate_id, created_at, RTRIM(lastname), win_probability
		FROM candidate
		ORDER BY candidate_id
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %w", ErrStorage, err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.LastName, &c.WinProbability); err != nil {
			return nil, fmt.Errorf("%w: scan candidate: %w", ErrStorage, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list candidates: %w", ErrStorage, err)
	}
	return out, nil
}

// Update altera só win_probability da linha com lastname exatamente igual
func (s *Store) Update(ctx context.Context, lastName string, winProbability float64) error {
	q := fmt.Sprintf(`UPDATE candidate SET win_probability = %s WHERE lastname = %s`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2))

	if _, err := s.db.ExecContext(ctx, q, winProbability, lastName); err != nil {
		return fmt.Errorf("%w: update %q: %w", ErrStorage, lastName, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, lastName string, winProbability float64) error {
	q := fmt.Sprintf(`INSERT INTO candidate (created_at, lastname, win_probability) VALUES (%s, %s, %s)`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))

	if _, err := s.db.ExecContext(ctx, q, s.now(), lastName, winProbability); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q: %w", ErrDuplicateKey, lastName, err)
		}
		return fmt.Errorf("%w: insert %q: %w", ErrStorage, lastName, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
