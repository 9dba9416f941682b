package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Migrate creates or alters the tables backing the given models.
func (p *Postgres) Migrate(ctx context.Context, models ...interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.client.WithContext(ctx).AutoMigrate(models...)
}

// Create inserts value.
func (p *Postgres) Create(ctx context.Context, value interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return TranslateError(p.client.WithContext(ctx).Create(value).Error)
}

// First loads the first record matching conditions into dest.
func (p *Postgres) First(ctx context.Context, dest interface{}, conditions ...interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return TranslateError(p.client.WithContext(ctx).First(dest, conditions...).Error)
}

// UpdateColumns sets columns on the rows of model matching condition and
// reports ErrRecordNotFound when nothing matched.
func (p *Postgres) UpdateColumns(ctx context.Context, model interface{}, columns map[string]interface{}, condition string, args ...interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	res := p.client.WithContext(ctx).Model(model).Where(condition, args...).Updates(columns)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Query starts a read query. The read lock is held until a terminal method
// (Find, Count) or Done is called.
//
//	var runs []Run
//	err := db.Query(ctx).Order("created_at DESC").Limit(20).Find(&runs)
func (p *Postgres) Query(ctx context.Context) *QueryBuilder {
	p.mu.RLock()
	return &QueryBuilder{
		db:      p.client.WithContext(ctx),
		release: p.mu.RUnlock,
	}
}

// QueryBuilder chains GORM query modifiers under the client read lock.
type QueryBuilder struct {
	db      *gorm.DB
	release func()
}

func (qb *QueryBuilder) Where(query interface{}, args ...interface{}) *QueryBuilder {
	qb.db = qb.db.Where(query, args...)
	return qb
}

func (qb *QueryBuilder) Order(value interface{}) *QueryBuilder {
	qb.db = qb.db.Order(value)
	return qb
}

func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.db = qb.db.Limit(limit)
	return qb
}

// Find runs the query into dest and releases the lock.
func (qb *QueryBuilder) Find(dest interface{}) error {
	defer qb.release()
	return TranslateError(qb.db.Find(dest).Error)
}

// Count runs a COUNT over model and releases the lock.
func (qb *QueryBuilder) Count(model interface{}, count *int64) error {
	defer qb.release()
	return TranslateError(qb.db.Model(model).Count(count).Error)
}

// Done releases the lock without running the query.
func (qb *QueryBuilder) Done() {
	qb.release()
}
