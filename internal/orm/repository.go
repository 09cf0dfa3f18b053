package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
)

// AuthorizeFunc narrows every query a repository builds
type AuthorizeFunc[T any] func(ctx context.Context, query *Query[T]) *Query[T]

// Repository provides typed CRUD access to one table
type Repository[T any] struct {
	db                DBExecutor
	metadata          *ModelMetadata
	middlewareManager *middlewareManager
	authorizeFuncs    []AuthorizeFunc[T]
}

// NewRepository creates a repository. A nil metadata is derived from T's tags.
func NewRepository[T any](db DBExecutor, metadata *ModelMetadata) (*Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("database executor is required")
	}
	if metadata == nil {
		m, err := MetadataFor[T]()
		if err != nil {
			return nil, err
		}
		metadata = m
	}
	if err := metadata.validate(); err != nil {
		return nil, err
	}

	return &Repository[T]{
		db:                db,
		metadata:          metadata,
		middlewareManager: newMiddlewareManager(),
	}, nil
}

// TableName returns the table the repository reads and writes
func (r *Repository[T]) TableName() string {
	return r.metadata.TableName
}

// Columns returns the selected column names in struct order
func (r *Repository[T]) Columns() []string {
	return r.metadata.ColumnOrder
}

// Authorize returns a copy whose queries, updates and deletes all pass through fn.
// The receiver is left unchanged.
func (r *Repository[T]) Authorize(fn AuthorizeFunc[T]) *Repository[T] {
	funcs := make([]AuthorizeFunc[T], len(r.authorizeFuncs), len(r.authorizeFuncs)+1)
	copy(funcs, r.authorizeFuncs)

	clone := *r
	clone.authorizeFuncs = append(funcs, fn)
	return &clone
}

// WithExecutor returns a copy bound to another executor, usually a transaction
func (r *Repository[T]) WithExecutor(db DBExecutor) *Repository[T] {
	clone := *r
	clone.db = db
	return &clone
}

// Query starts a select on the table with authorization applied
func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	q := &Query[T]{
		repo: r,
		builder: squirrel.Select(r.Columns()...).
			From(r.metadata.TableName).
			PlaceholderFormat(squirrel.Dollar),
		ctx:         ctx,
		whereClause: squirrel.And{},
	}
	for _, fn := range r.authorizeFuncs {
		q = fn(ctx, q)
	}
	return q
}

// FindByID loads a record by its single-column primary key
func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	where, err := r.primaryKeyWhere(id)
	if err != nil {
		return nil, err
	}
	return r.Query(ctx).Where(where).First()
}

// Create inserts the record and refreshes it from the RETURNING row
func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "create", Table: r.metadata.TableName, Err: fmt.Errorf("record is nil")}
	}

	columns, values, err := r.writableValues(record, true)
	if err != nil {
		return &Error{Op: "create", Table: r.metadata.TableName, Err: err}
	}

	builder := squirrel.Insert(r.metadata.TableName).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING " + strings.Join(r.Columns(), ", ")).
		PlaceholderFormat(squirrel.Dollar)

	return r.executeQueryMiddleware(OpCreate, ctx, record, builder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.InsertBuilder).ToSql()
		if err != nil {
			return &Error{Op: "create", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build insert query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).StructScan(record); err != nil {
			return ParsePostgreSQLError(err, "create", r.metadata.TableName)
		}
		return nil
	})
}

// Update writes every non-key column of the record. Authorization applies, so a
// record outside the caller's scope reports ErrNotFound.
func (r *Repository[T]) Update(ctx context.Context, record *T) error {
	if record == nil {
		return &Error{Op: "update", Table: r.metadata.TableName, Err: fmt.Errorf("record is nil")}
	}

	columns, values, err := r.writableValues(record, false)
	if err != nil {
		return &Error{Op: "update", Table: r.metadata.TableName, Err: err}
	}

	keyWhere, err := r.recordKeyWhere(record)
	if err != nil {
		return err
	}

	builder := squirrel.Update(r.metadata.TableName).
		Where(keyWhere).
		Suffix("RETURNING " + strings.Join(r.Columns(), ", ")).
		PlaceholderFormat(squirrel.Dollar)
	for i, col := range columns {
		builder = builder.Set(col, values[i])
	}
	if scope := r.Query(ctx).whereClause; len(scope) > 0 {
		builder = builder.Where(scope)
	}

	return r.executeQueryMiddleware(OpUpdate, ctx, record, builder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.UpdateBuilder).ToSql()
		if err != nil {
			return &Error{Op: "update", Table: r.metadata.TableName, Err: fmt.Errorf("failed to build update query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		if err := r.db.QueryRowxContext(ctx, sqlQuery, args...).StructScan(record); err != nil {
			return ParsePostgreSQLError(err, "update", r.metadata.TableName)
		}
		return nil
	})
}

// Delete removes the record with the given primary key
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	where, err := r.primaryKeyWhere(id)
	if err != nil {
		return err
	}

	affected, err := r.Query(ctx).Where(where).Delete()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &Error{Op: "delete", Table: r.metadata.TableName, Err: ErrNotFound}
	}
	return nil
}

func (r *Repository[T]) primaryKeyWhere(id interface{}) (Condition, error) {
	if len(r.metadata.PrimaryKeys) != 1 {
		return Condition{}, &Error{
			Op:    "find",
			Table: r.metadata.TableName,
			Err:   fmt.Errorf("composite primary key needs a full condition"),
		}
	}
	return Condition{squirrel.Eq{r.metadata.PrimaryKeys[0]: id}}, nil
}

func (r *Repository[T]) recordKeyWhere(record *T) (squirrel.Eq, error) {
	where := squirrel.Eq{}
	rv := reflect.ValueOf(record)
	for _, pk := range r.metadata.PrimaryKeys {
		col := r.metadata.column(pk)
		if col == nil {
			return nil, &Error{Op: "update", Table: r.metadata.TableName, Column: pk, Err: ErrNoPrimaryKey}
		}
		v, err := r.metadata.fieldValue(rv, col)
		if err != nil {
			return nil, &Error{Op: "update", Table: r.metadata.TableName, Err: err}
		}
		where[pk] = v
	}
	return where, nil
}

// writableValues lists the columns written by insert (keys included) or update
// (keys excluded). Generated columns are never written.
func (r *Repository[T]) writableValues(record *T, includeKeys bool) ([]string, []interface{}, error) {
	rv := reflect.ValueOf(record)
	columns := make([]string, 0, len(r.metadata.ColumnOrder))
	values := make([]interface{}, 0, len(r.metadata.ColumnOrder))

	for _, name := range r.metadata.ColumnOrder {
		col := r.metadata.column(name)
		if col == nil || col.IsGenerated {
			continue
		}
		if col.IsPrimaryKey && !includeKeys {
			continue
		}
		v, err := r.metadata.fieldValue(rv, col)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, name)
		values = append(values, v)
	}

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("no writable columns")
	}
	return columns, values, nil
}
