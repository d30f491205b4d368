package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/labtriage/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ReferenceStore = (*Store)(nil)

// Store keeps reference data in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// ImportRecord is one entry of the import history.
type ImportRecord struct {
	Version        string
	Source         string
	MarkerCount    int
	ThresholdCount int
	ImportedAt     time.Time
}

// DefaultPath returns ~/.labtriage/data/refdata.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".labtriage", "data", "refdata.db"), nil
}

// NewStore opens (creating if needed) the database at dbPath and runs
// migrations. An empty path uses DefaultPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets readers continue while an import is written.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Name implements driven.ReferenceSource.
func (s *Store) Name() string {
	return "sqlite:" + s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_reference_data.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Load implements driven.ReferenceSource. It returns domain.ErrNotFound
// when nothing has been imported yet.
func (s *Store) Load(ctx context.Context) (*domain.ReferenceData, error) {
	data := &domain.ReferenceData{}

	err := s.db.QueryRowContext(ctx, "SELECT version FROM reference_meta WHERE id = 1").Scan(&data.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no reference data imported into %s: %w", s.path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reference version: %w", err)
	}

	if data.Markers, err = s.loadMarkers(ctx); err != nil {
		return nil, err
	}
	if data.Thresholds, err = s.loadThresholds(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) loadMarkers(ctx context.Context) ([]domain.CanonicalMarker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, category, weight, unit, kind, sample, plausible_min, plausible_max, aliases
		FROM markers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying markers: %w", err)
	}
	defer rows.Close()

	var markers []domain.CanonicalMarker
	for rows.Next() {
		var m domain.CanonicalMarker
		var kind, sample, aliasesJSON string
		if err := rows.Scan(&m.Code, &m.Name, &m.Category, &m.Weight, &m.ExpectedUnit, &kind, &sample,
			&m.PlausibleMin, &m.PlausibleMax, &aliasesJSON); err != nil {
			return nil, fmt.Errorf("scanning marker: %w", err)
		}
		m.Kind = domain.ResultKind(kind)
		m.PreferredSample = domain.SampleType(sample)
		if err := json.Unmarshal([]byte(aliasesJSON), &m.Aliases); err != nil {
			return nil, fmt.Errorf("unmarshalling aliases of %s: %w", m.Code, err)
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

func (s *Store) loadThresholds(ctx context.Context) ([]domain.CriticalThreshold, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT marker, unit, high, low, urgency, significance
		FROM thresholds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []domain.CriticalThreshold
	for rows.Next() {
		var th domain.CriticalThreshold
		var high, low sql.NullFloat64
		var urgency string
		if err := rows.Scan(&th.MarkerCode, &th.Unit, &high, &low, &urgency, &th.Significance); err != nil {
			return nil, fmt.Errorf("scanning threshold: %w", err)
		}
		th.Urgency = domain.Urgency(urgency)
		if high.Valid {
			th.High = domain.Float64Ptr(high.Float64)
		}
		if low.Valid {
			th.Low = domain.Float64Ptr(low.Float64)
		}
		thresholds = append(thresholds, th)
	}
	return thresholds, rows.Err()
}

// Save implements driven.ReferenceStore.
func (s *Store) Save(ctx context.Context, data *domain.ReferenceData) error {
	return s.Import(ctx, data, "")
}

// Import replaces the stored reference data in one transaction and records
// the import in the history.
func (s *Store) Import(ctx context.Context, data *domain.ReferenceData, source string) error {
	if data == nil {
		return fmt.Errorf("import reference data: %w", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM thresholds", "DELETE FROM markers", "DELETE FROM reference_meta"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing reference data: %w", err)
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO reference_meta (id, version, source, imported_at) VALUES (1, ?, ?, ?)",
		data.Version, source, now); err != nil {
		return fmt.Errorf("inserting reference meta: %w", err)
	}

	for i, m := range data.Markers {
		aliases := m.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		aliasesJSON, err := json.Marshal(aliases)
		if err != nil {
			return fmt.Errorf("marshalling aliases of %s: %w", m.Code, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markers (code, position, name, category, weight, unit, kind, sample, plausible_min, plausible_max, aliases)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Code, i, m.Name, m.Category, m.Weight, m.ExpectedUnit, string(m.Kind), string(m.PreferredSample),
			m.PlausibleMin, m.PlausibleMax, string(aliasesJSON)); err != nil {
			return fmt.Errorf("inserting marker %s: %w", m.Code, err)
		}
	}

	for _, th := range data.Thresholds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO thresholds (marker, unit, high, low, urgency, significance)
			VALUES (?, ?, ?, ?, ?, ?)`,
			th.MarkerCode, th.Unit, nullFloat(th.High), nullFloat(th.Low), string(th.Urgency), th.Significance); err != nil {
			return fmt.Errorf("inserting threshold for %s: %w", th.MarkerCode, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reference_imports (version, source, marker_count, threshold_count, imported_at)
		VALUES (?, ?, ?, ?, ?)`,
		data.Version, source, len(data.Markers), len(data.Thresholds), now); err != nil {
		return fmt.Errorf("recording import: %w", err)
	}

	return tx.Commit()
}

// Imports returns the import history, newest first.
func (s *Store) Imports(ctx context.Context) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, source, marker_count, threshold_count, imported_at
		FROM reference_imports ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(&r.Version, &r.Source, &r.MarkerCount, &r.ThresholdCount, &r.ImportedAt); err != nil {
			return nil, fmt.Errorf("scanning import: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
