package orm

import (
	"context"
	"sync"
	"time"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpUpdate     OperationType = "update"
	OpUpdateMany OperationType = "update_many"
	OpDelete     OperationType = "delete"
	OpQuery      OperationType = "query"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.InsertBuilder, etc.
	Query        string
	Args         []interface{}
	StartTime    time.Time
	Context      context.Context
	Metadata     map[string]interface{}
}

// QueryMiddlewareFunc represents middleware that can modify queries
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware represents middleware that can see and modify query builders
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

// middlewareManager is shared by a repository and every copy derived from it
type middlewareManager struct {
	mu         sync.RWMutex
	middleware []QueryMiddleware
}

func newMiddlewareManager() *middlewareManager {
	return &middlewareManager{middleware: make([]QueryMiddleware, 0)}
}

func (mm *middlewareManager) add(middleware QueryMiddleware) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.middleware = append(mm.middleware, middleware)
}

func (mm *middlewareManager) execute(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	mm.mu.RLock()
	chain := make([]QueryMiddleware, len(mm.middleware))
	copy(chain, mm.middleware)
	mm.mu.RUnlock()

	handler := finalFunc
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.metadata.TableName,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
		Metadata:     make(map[string]interface{}),
	}
	return r.middlewareManager.execute(middlewareCtx, finalFunc)
}

// AddMiddleware registers middleware on the repository and all its copies
func (r *Repository[T]) AddMiddleware(middleware QueryMiddleware) {
	r.middlewareManager.add(middleware)
}
