package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// LibSQLLibrary implements the Library interface using libSQL (embedded SQLite fork).
type LibSQLLibrary struct {
	db *sql.DB
}

var _ Library = (*LibSQLLibrary)(nil)

// NewLibSQLLibrary opens a libSQL database at the given path.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLLibrary(dbPath string) (*LibSQLLibrary, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLLibrary{db: db}, nil
}

// Close closes the database.
func (l *LibSQLLibrary) Close() error { return l.db.Close() }

// Migrate runs all pending database migrations.
func (l *LibSQLLibrary) Migrate(ctx context.Context) error {
	return runMigrations(ctx, l.db)
}

// --- Rules ---

func (l *LibSQLLibrary) Save(ctx context.Context, r *StoredRule) error {
	if strings.TrimSpace(r.Name) == "" {
		return rule.NewError(rule.ErrCodeValidation, "rule name is required")
	}
	if _, err := rule.ParseString(r.Source); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rules (id, name, description, source, data_schema, sample_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET description=excluded.description, source=excluded.source,
		   data_schema=excluded.data_schema, sample_data=excluded.sample_data, updated_at=CURRENT_TIMESTAMP`,
		r.ID, r.Name, nullStr(r.Description), r.Source, nullRaw(r.DataSchema), nullRaw(r.SampleData),
		timeOrNow(r.CreatedAt), timeOrNow(r.UpdatedAt),
	); err != nil {
		return err
	}

	// Saving an existing name keeps its id; read back the canonical one.
	if err := tx.QueryRowContext(ctx, `SELECT id FROM rules WHERE name = ?`, r.Name).Scan(&r.ID); err != nil {
		return err
	}
	if err := replaceTags(ctx, tx, r.ID, r.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func (l *LibSQLLibrary) Get(ctx context.Context, id string) (*StoredRule, error) {
	return l.getRule(ctx, "WHERE id = ?", id)
}

func (l *LibSQLLibrary) GetByName(ctx context.Context, name string) (*StoredRule, error) {
	return l.getRule(ctx, "WHERE name = ?", name)
}

func (l *LibSQLLibrary) getRule(ctx context.Context, where, key string) (*StoredRule, error) {
	r := &StoredRule{}
	var desc, dataSchema, sampleData sql.NullString
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, description, source, data_schema, sample_data, created_at, updated_at FROM rules `+where, key,
	).Scan(&r.ID, &r.Name, &desc, &r.Source, &dataSchema, &sampleData, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, libraryNotFound("rule", key)
	}
	if err != nil {
		return nil, err
	}
	r.Description = desc.String
	r.DataSchema = rawOrNil(dataSchema)
	r.SampleData = rawOrNil(sampleData)
	r.Tags, err = l.ruleTags(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (l *LibSQLLibrary) List(ctx context.Context, filter Filter) ([]*StoredRule, error) {
	var where []string
	var args []any

	if filter.Tag != "" {
		where = append(where, "id IN (SELECT rule_id FROM rule_tags WHERE tag = ?)")
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT id, name, description, source, data_schema, sample_data, created_at, updated_at FROM rules"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*StoredRule
	for rows.Next() {
		r := &StoredRule{}
		var desc, dataSchema, sampleData sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &desc, &r.Source, &dataSchema, &sampleData, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Description = desc.String
		r.DataSchema = rawOrNil(dataSchema)
		r.SampleData = rawOrNil(sampleData)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Tags are loaded after the rows are drained: the pool holds a
	// single connection, so nested queries must not overlap.
	for _, r := range rules {
		if r.Tags, err = l.ruleTags(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func (l *LibSQLLibrary) Update(ctx context.Context, id string, update Update) error {
	if update.Source != nil {
		if _, err := rule.ParseString(*update.Source); err != nil {
			return err
		}
	}

	var sets []string
	var args []any
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStr(*update.Description))
	}
	if update.Source != nil {
		sets = append(sets, "source = ?")
		args = append(args, *update.Source)
	}
	if update.DataSchema != nil {
		sets = append(sets, "data_schema = ?")
		args = append(args, string(update.DataSchema))
	}
	if update.SampleData != nil {
		sets = append(sets, "sample_data = ?")
		args = append(args, string(update.SampleData))
	}
	if len(sets) == 0 && update.Tags == nil {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, id)
		query := fmt.Sprintf("UPDATE rules SET %s WHERE id = ?", strings.Join(sets, ", "))
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res, "rule", id); err != nil {
			return err
		}
	} else {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM rules WHERE id = ?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return libraryNotFound("rule", id)
		}
		if err != nil {
			return err
		}
	}

	if update.Tags != nil {
		if err := replaceTags(ctx, tx, id, update.Tags); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (l *LibSQLLibrary) Delete(ctx context.Context, id string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	// rule_tags rows go with the rule via ON DELETE CASCADE.
	return checkRowsAffected(res, "rule", id)
}

// --- Tags ---

func (l *LibSQLLibrary) Tags(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT tag FROM rule_tags ORDER BY tag ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (l *LibSQLLibrary) ruleTags(ctx context.Context, ruleID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT tag FROM rule_tags WHERE rule_id = ? ORDER BY tag ASC`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func replaceTags(ctx context.Context, tx *sql.Tx, ruleID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_tags WHERE rule_id = ?`, ruleID); err != nil {
		return err
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO rule_tags (rule_id, tag) VALUES (?, ?)`, ruleID, tag); err != nil {
			return err
		}
	}
	return nil
}

// --- Helpers ---

func libraryNotFound(resource, id string) *rule.Error {
	return rule.NewErrorf(rule.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return libraryNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullRaw(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

func rawOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
