package database

import (
	"context"
	"sync/atomic"

	"gorm.io/gorm"
)

// SessionProvider hands out one transactional session per unit of request work
type SessionProvider struct {
	db   *gorm.DB
	open atomic.Int64
}

// NewSessionProvider wraps a pooled *gorm.DB
func NewSessionProvider(db *gorm.DB) *SessionProvider {
	return &SessionProvider{db: db}
}

// WithSession runs fn against a fresh session bound to ctx.
// The session holds one pooled connection inside a transaction that is
// committed when fn returns nil and rolled back when fn fails or panics.
// tx must not escape fn.
func (p *SessionProvider) WithSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	p.open.Add(1)
	defer p.open.Add(-1)

	session := p.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	return session.Transaction(fn)
}

// Open returns the number of sessions currently in use
func (p *SessionProvider) Open() int64 {
	return p.open.Load()
}

// DB exposes the underlying pool for health checks
func (p *SessionProvider) DB() *gorm.DB {
	return p.db
}
