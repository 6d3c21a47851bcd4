package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"casechain/core/events"
	"casechain/core/types"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// counterpartyKeys lists, in priority order, the attributes naming the other
// side of an event.
var counterpartyKeys = []string{"referrer", "to", "spender", "staker", "minter", "admin"}

// EventRecord is one committed engine event indexed by the accounts it
// touches.
type EventRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Sequence     uint64    `gorm:"uniqueIndex" json:"sequence"`
	Type         string    `gorm:"size:64;index" json:"type"`
	Subject      string    `gorm:"size:96;index" json:"subject"`
	Counterparty string    `gorm:"size:96;index" json:"counterparty,omitempty"`
	Amount       string    `gorm:"size:96" json:"amount,omitempty"`
	Attributes   string    `gorm:"type:text" json:"-"`
	Timestamp    int64     `gorm:"index" json:"timestamp"`
	CreatedAt    time.Time `json:"indexedAt"`
}

// BeforeCreate assigns the record id.
func (r *EventRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Attrs decodes the stored attribute map.
func (r *EventRecord) Attrs() map[string]string {
	out := map[string]string{}
	if r == nil || r.Attributes == "" {
		return out
	}
	_ = json.Unmarshal([]byte(r.Attributes), &out)
	return out
}

// Query filters address lookups.
type Query struct {
	Types         []string
	AfterSequence uint64
	Limit         int
}

// Store persists events through gorm. It implements events.Emitter so it can
// sit behind the engine directly.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to dsn: postgres:// and postgresql:// URLs use the postgres
// driver, anything else is treated as a sqlite path or URI.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("explorer: dsn required")
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("explorer: open: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("explorer: nil database")
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("explorer: migrate: %w", err)
	}
	return &Store{db: db, logger: slog.Default()}, nil
}

// SetLogger overrides the structured logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// Emit indexes evt. Failures are logged; the engine has already committed.
func (s *Store) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	if err := s.Record(context.Background(), evt.Event()); err != nil {
		s.logger.Error("explorer: index event",
			slog.String("type", evt.EventType()),
			slog.Any("error", err))
	}
}

// Record indexes a single event. Re-recording a sequence is a no-op.
func (s *Store) Record(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return nil
	}
	attrs, err := json.Marshal(evt.Attributes)
	if err != nil {
		return err
	}
	record := &EventRecord{
		Sequence:     evt.Sequence,
		Type:         evt.Type,
		Subject:      evt.Attr("account"),
		Counterparty: counterparty(evt),
		Amount:       amountOf(evt),
		Attributes:   string(attrs),
		Timestamp:    evt.Timestamp,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sequence"}}, DoNothing: true}).
		Create(record).Error
}

// ByAddress returns events where addr is the subject or the counterparty, in
// commit order.
func (s *Store) ByAddress(ctx context.Context, addr string, q Query) ([]EventRecord, error) {
	tx := s.db.WithContext(ctx).
		Where("(subject = ? OR counterparty = ?)", addr, addr).
		Where("sequence > ?", q.AfterSequence)
	if len(q.Types) > 0 {
		tx = tx.Where("type IN ?", q.Types)
	}
	var out []EventRecord
	err := tx.Order("sequence ASC").Limit(clampLimit(q.Limit)).Find(&out).Error
	return out, err
}

// Recent returns the latest events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]EventRecord, error) {
	var out []EventRecord
	err := s.db.WithContext(ctx).Order("sequence DESC").Limit(clampLimit(limit)).Find(&out).Error
	return out, err
}

// LastSequence returns the highest indexed sequence, zero when empty.
func (s *Store) LastSequence(ctx context.Context) (uint64, error) {
	var seq int64
	row := s.db.WithContext(ctx).Model(&EventRecord{}).Select("COALESCE(MAX(sequence), 0)").Row()
	if err := row.Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func counterparty(evt *types.Event) string {
	for _, key := range counterpartyKeys {
		if value := evt.Attr(key); value != "" {
			return value
		}
	}
	return ""
}

func amountOf(evt *types.Event) string {
	for _, key := range []string{"amount", "principal", "reward"} {
		if value := evt.Attr(key); value != "" {
			return value
		}
	}
	return ""
}
