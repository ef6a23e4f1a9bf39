package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type conversationRow struct {
	bun.BaseModel `bun:"table:conversation_records,alias:cr"`

	ID                  string    `bun:"id,pk"`
	Progress            int       `bun:"progress,notnull,default:0"`
	NumberOfProjects    int       `bun:"number_of_projects,notnull,default:0"`
	NumberOfHoursWorked int       `bun:"number_of_hours_worked,notnull,default:0"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r conversationRow) toRecord() ConversationRecord {
	return ConversationRecord{
		ID:                  r.ID,
		Progress:            Stage(r.Progress),
		NumberOfProjects:    r.NumberOfProjects,
		NumberOfHoursWorked: r.NumberOfHoursWorked,
	}
}

// PostgresStore is the database-backed Store. Unlike FileStore, its upsert
// is atomic per key (INSERT .. ON CONFLICT), so concurrent writers cannot
// corrupt the collection itself; the turn-level read-modify-write race in
// the Store contract still applies.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{db: db}, nil
}

// Init creates the backing table when it does not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*conversationRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create conversation_records table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (ConversationRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ConversationRecord{}, ErrInvalidUserID
	}

	row := new(conversationRow)
	err := s.db.NewSelect().
		Model(row).
		Where("cr.id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewConversationRecord(userID), nil
		}
		return ConversationRecord{}, fmt.Errorf("select conversation record: %w", err)
	}
	return row.toRecord(), nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec ConversationRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	row := &conversationRow{
		ID:                  rec.ID,
		Progress:            int(rec.Progress),
		NumberOfProjects:    rec.NumberOfProjects,
		NumberOfHoursWorked: rec.NumberOfHoursWorked,
		UpdatedAt:           time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("progress = EXCLUDED.progress").
		Set("number_of_projects = EXCLUDED.number_of_projects").
		Set("number_of_hours_worked = EXCLUDED.number_of_hours_worked").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert conversation record: %w", err)
	}
	return nil
}
