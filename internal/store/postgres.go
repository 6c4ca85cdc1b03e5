package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/hub"
)

type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       []byte `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Postgres is the durable Store. Documents live as JSONB rows; the partial
// merge runs read-modify-write inside a transaction with a row lock, which is
// enough for per-document atomicity. Change pushes fan out through the same
// in-process hub the memory store uses, so subscribers on this process see
// every commit this process makes.
type Postgres struct {
	db  *gorm.DB
	hub *hub.Hub
	log *zap.Logger
}

func NewPostgres(dsn string, h *hub.Hub, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &Postgres{db: db, hub: h, log: log}, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRow(row)
}

func (p *Postgres) Create(ctx context.Context, collection, id string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	row := documentRow{Collection: collection, ID: id, Data: data}
	err = p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}

	committed, err := decodeRow(row)
	if err != nil {
		return err
	}
	p.publish(collection, id, committed, false)
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields Document) error {
	var committed Document
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND id = ?", collection, id).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		doc, err := decodeRow(row)
		if err != nil {
			return err
		}
		for k, v := range fields {
			doc[k] = v
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		committed = doc
		return tx.Model(&documentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Update("data", data).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	p.publish(collection, id, committed, false)
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	res := p.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected > 0 {
		p.publish(collection, id, nil, true)
	}
	return nil
}

func (p *Postgres) Subscribe(collection, id string, fn SubscribeFunc) Unsubscribe {
	key := docKey(collection, id)
	subID := uuid.NewString()
	out := make(chan hub.Event, 8)

	go func() {
		for ev := range out {
			fn(Event{Collection: ev.Collection, ID: ev.ID, Doc: Document(ev.Doc), Deleted: ev.Deleted})
		}
	}()

	// The snapshot rides the Subscribe message so the actor orders it ahead
	// of later publishes. A write committing between the read and the enqueue
	// can still race ahead of registration; the next push catches that
	// subscriber up.
	var initial *hub.Event
	if doc, err := p.Get(context.Background(), collection, id); err == nil {
		initial = &hub.Event{Collection: collection, ID: id, Doc: doc}
	}
	p.hub.Inbox() <- hub.Subscribe{Key: key, SubID: subID, Outbox: out, Initial: initial}

	return func() {
		p.hub.Inbox() <- hub.Unsubscribe{Key: key, SubID: subID}
	}
}

func (p *Postgres) publish(collection, id string, doc Document, deleted bool) {
	p.hub.Inbox() <- hub.Publish{
		Key:   docKey(collection, id),
		Event: hub.Event{Collection: collection, ID: id, Doc: doc, Deleted: deleted},
	}
}

func decodeRow(row documentRow) (Document, error) {
	var doc Document
	if err := json.Unmarshal(row.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
	}
	return doc, nil
}
