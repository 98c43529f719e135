package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// PostgresStore keeps templates and logs in Postgres. Ids are ObjectID hex
// strings so they look the same as with the Mongo backend.
type PostgresStore struct {
	url string

	db     atomic.Pointer[sql.DB]
	conn   initOnce
	schema initOnce

	now func() time.Time
}

func NewPostgresStore(url string) *PostgresStore {
	return &PostgresStore{url: url, now: time.Now}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sms_templates (
	id          TEXT PRIMARY KEY,
	template_id TEXT,
	name        TEXT NOT NULL,
	body        TEXT NOT NULL,
	variables   JSON NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS sms_templates_template_id_key ON sms_templates (template_id);
CREATE TABLE IF NOT EXISTS sms_logs (
	id                TEXT PRIMARY KEY,
	phone             TEXT NOT NULL,
	message           TEXT NOT NULL,
	template_id       TEXT,
	variables         JSON NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL,
	provider_response TEXT,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sms_logs_created_at_idx ON sms_logs (created_at DESC);
CREATE INDEX IF NOT EXISTS sms_logs_phone_created_at_idx ON sms_logs (phone, created_at DESC);
`

func (s *PostgresStore) handle(ctx context.Context) (*sql.DB, error) {
	if s.url == "" {
		return nil, fmt.Errorf("%w: missing POSTGRES_URL", model.ErrConfiguration)
	}

	err := s.conn.Do(ctx, func(ctx context.Context) error {
		db, err := sql.Open("pgx", s.url)
		if err != nil {
			return fmt.Errorf("postgres open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("postgres ping: %w", err)
		}
		s.db.Store(db)
		slog.Info("postgres connected")
		return nil
	})
	if err != nil {
		return nil, err
	}

	db := s.db.Load()
	err = s.schema.Do(ctx, func(ctx context.Context) error {
		if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
			return fmt.Errorf("postgres ensure schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

const templateColumns = `id, template_id, name, body, variables, created_at, updated_at`

func (s *PostgresStore) ListTemplates(ctx context.Context, search string) ([]model.Template, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM sms_templates
		WHERE $1 = '' OR name ILIKE $2 OR template_id ILIKE $2 OR body ILIKE $2
		ORDER BY id DESC
	`, search, likePattern(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error) {
	return s.findTemplate(ctx, `id = $1`, id.Hex())
}

func (s *PostgresStore) GetTemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error) {
	return s.findTemplate(ctx, `template_id = $1`, templateID)
}

func (s *PostgresStore) findTemplate(ctx context.Context, where string, arg any) (*model.Template, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM sms_templates WHERE `+where, arg)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	variables := in.Variables
	if variables == nil {
		variables = []string{}
	}
	vars, err := json.Marshal(variables)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var (
		id         string
		templateID sql.NullString
		conflict   string
	)
	switch k := in.Key.(type) {
	case model.ByStorageID:
		id, conflict = k.ID.Hex(), "id"
	case model.ByTemplateID:
		id, conflict = primitive.NewObjectID().Hex(), "template_id"
		templateID = sql.NullString{String: k.TemplateID, Valid: true}
	default:
		return nil, fmt.Errorf("%w: unsupported template key %T", model.ErrInvalidInput, in.Key)
	}

	row := db.QueryRowContext(ctx, `
		INSERT INTO sms_templates (id, template_id, name, body, variables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::json, $6, $6)
		ON CONFLICT (`+conflict+`) DO UPDATE
		SET name = EXCLUDED.name,
		    body = EXCLUDED.body,
		    variables = EXCLUDED.variables,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+templateColumns,
		id, templateID, in.Name, in.Body, string(vars), now,
	)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) DeleteTemplateByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.deleteTemplate(ctx, `id = $1`, id.Hex())
}

func (s *PostgresStore) DeleteTemplateByTemplateID(ctx context.Context, templateID string) (bool, error) {
	return s.deleteTemplate(ctx, `template_id = $1`, templateID)
}

func (s *PostgresStore) deleteTemplate(ctx context.Context, where string, arg any) (bool, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM sms_templates WHERE `+where, arg)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) InsertLog(ctx context.Context, l model.SmsLog) (model.SmsLog, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return model.SmsLog{}, err
	}

	vars, err := json.Marshal(model.ToList(l.Variables))
	if err != nil {
		return model.SmsLog{}, err
	}
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sms_logs (id, phone, message, template_id, variables, status, provider_response, created_at)
		VALUES ($1, $2, $3, $4, $5::json, $6, $7, $8)
	`,
		l.ID.Hex(),
		l.Phone,
		l.Message,
		nullString(l.TemplateID),
		string(vars),
		string(l.Status),
		nullString(l.ProviderResponse),
		l.CreatedAt,
	)
	if err != nil {
		return model.SmsLog{}, err
	}
	return l, nil
}

func (s *PostgresStore) ListLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	f = f.Clamped()
	rows, err := db.QueryContext(ctx, `
		SELECT id, phone, message, template_id, variables, status, provider_response, created_at
		FROM sms_logs
		WHERE ($1 = '' OR phone = $1) AND ($2 = '' OR template_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, f.Phone, f.TemplateID, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SmsLog{}
	for rows.Next() {
		var (
			l          model.SmsLog
			id         string
			templateID sql.NullString
			vars       []byte
			status     string
			provider   sql.NullString
		)
		if err := rows.Scan(
			&id,
			&l.Phone,
			&l.Message,
			&templateID,
			&vars,
			&status,
			&provider,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}

		if l.ID, err = primitive.ObjectIDFromHex(id); err != nil {
			return nil, fmt.Errorf("sms_logs: bad id %q: %w", id, err)
		}
		var pairs []model.KeyValue
		if err := json.Unmarshal(vars, &pairs); err != nil {
			return nil, fmt.Errorf("sms_logs: bad variables for %s: %w", id, err)
		}
		l.Variables = model.ToMapping(pairs)
		l.TemplateID = templateID.String
		l.Status = model.Status(status)
		l.ProviderResponse = provider.String

		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close(ctx context.Context) error {
	if db := s.db.Load(); db != nil {
		return db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (model.Template, error) {
	var (
		t          model.Template
		id         string
		templateID sql.NullString
		vars       []byte
		updatedAt  sql.NullTime
	)
	if err := row.Scan(&id, &templateID, &t.Name, &t.Body, &vars, &t.CreatedAt, &updatedAt); err != nil {
		return model.Template{}, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Template{}, fmt.Errorf("sms_templates: bad id %q: %w", id, err)
	}
	t.ID = oid
	t.TemplateID = templateID.String
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}

	t.Variables = []string{}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &t.Variables); err != nil {
			return model.Template{}, fmt.Errorf("sms_templates: bad variables for %s: %w", id, err)
		}
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// likePattern builds an ILIKE substring pattern with wildcards in search escaped.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}
