package orm

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
)

// Query provides a fluent interface for building database queries
type Query[T any] struct {
	repo    *Repository[T]
	builder squirrel.SelectBuilder
	err     error
	ctx     context.Context

	limit       *uint64
	offset      *uint64
	orderBy     []string
	whereClause squirrel.And
}

func (q *Query[T]) Where(condition Condition) *Query[T] {
	if q.err != nil {
		return q
	}
	if condition.condition == nil {
		q.err = fmt.Errorf("empty condition")
		return q
	}
	q.whereClause = append(q.whereClause, condition.ToSqlizer())
	return q
}

func (q *Query[T]) OrderBy(expressions ...string) *Query[T] {
	if q.err != nil {
		return q
	}
	q.orderBy = append(q.orderBy, expressions...)
	return q
}

func (q *Query[T]) Limit(limit uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.limit = &limit
	return q
}

func (q *Query[T]) Offset(offset uint64) *Query[T] {
	if q.err != nil {
		return q
	}
	q.offset = &offset
	return q
}

func (q *Query[T]) selectBuilder() squirrel.SelectBuilder {
	builder := q.builder

	if len(q.whereClause) > 0 {
		builder = builder.Where(q.whereClause)
	}
	for _, orderBy := range q.orderBy {
		builder = builder.OrderBy(orderBy)
	}
	if q.limit != nil {
		builder = builder.Limit(*q.limit)
	}
	if q.offset != nil {
		builder = builder.Offset(*q.offset)
	}
	return builder
}

// ToSql renders the select without running it
func (q *Query[T]) ToSql() (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return q.selectBuilder().ToSql()
}

func (q *Query[T]) Find() ([]T, error) {
	table := q.repo.metadata.TableName
	if q.err != nil {
		return nil, &Error{Op: "find", Table: table, Err: q.err}
	}

	records := make([]T, 0)
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, q.selectBuilder(), func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.SelectBuilder).ToSql()
		if err != nil {
			return &Error{Op: "find", Table: table, Err: fmt.Errorf("failed to build query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		if err := q.repo.db.SelectContext(q.ctx, &records, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "find", table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (q *Query[T]) First() (*T, error) {
	q.Limit(1)
	records, err := q.Find()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &Error{Op: "first", Table: q.repo.metadata.TableName, Err: ErrNotFound}
	}

	return &records[0], nil
}

func (q *Query[T]) Count() (int64, error) {
	table := q.repo.metadata.TableName
	if q.err != nil {
		return 0, &Error{Op: "count", Table: table, Err: q.err}
	}

	countBuilder := squirrel.Select("COUNT(*)").
		From(table).
		PlaceholderFormat(squirrel.Dollar)
	if len(q.whereClause) > 0 {
		countBuilder = countBuilder.Where(q.whereClause)
	}

	var count int64
	err := q.repo.executeQueryMiddleware(OpQuery, q.ctx, nil, countBuilder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.SelectBuilder).ToSql()
		if err != nil {
			return &Error{Op: "count", Table: table, Err: fmt.Errorf("failed to build count query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		if err := q.repo.db.GetContext(q.ctx, &count, sqlQuery, args...); err != nil {
			return ParsePostgreSQLError(err, "count", table)
		}
		return nil
	})

	return count, err
}

func (q *Query[T]) Exists() (bool, error) {
	count, err := q.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes every matching row and reports how many went
func (q *Query[T]) Delete() (int64, error) {
	table := q.repo.metadata.TableName
	if q.err != nil {
		return 0, &Error{Op: "delete", Table: table, Err: q.err}
	}

	deleteBuilder := squirrel.Delete(table).
		PlaceholderFormat(squirrel.Dollar)
	if len(q.whereClause) > 0 {
		deleteBuilder = deleteBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpDelete, q.ctx, nil, deleteBuilder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.DeleteBuilder).ToSql()
		if err != nil {
			return &Error{Op: "delete", Table: table, Err: fmt.Errorf("failed to build delete query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "delete", table)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return &Error{Op: "delete", Table: table, Err: fmt.Errorf("failed to get rows affected: %w", err)}
		}
		return nil
	})

	return rowsAffected, err
}

// Update sets columns on every matching row and reports how many changed
func (q *Query[T]) Update(updates map[string]interface{}) (int64, error) {
	table := q.repo.metadata.TableName
	if q.err != nil {
		return 0, &Error{Op: "update", Table: table, Err: q.err}
	}
	if len(updates) == 0 {
		return 0, &Error{Op: "update", Table: table, Err: fmt.Errorf("no updates provided")}
	}

	updateBuilder := squirrel.Update(table).
		PlaceholderFormat(squirrel.Dollar)

	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		updateBuilder = updateBuilder.Set(column, updates[column])
	}

	if len(q.whereClause) > 0 {
		updateBuilder = updateBuilder.Where(q.whereClause)
	}

	var rowsAffected int64
	err := q.repo.executeQueryMiddleware(OpUpdateMany, q.ctx, updates, updateBuilder, func(mc *MiddlewareContext) error {
		sqlQuery, args, err := mc.QueryBuilder.(squirrel.UpdateBuilder).ToSql()
		if err != nil {
			return &Error{Op: "update", Table: table, Err: fmt.Errorf("failed to build update query: %w", err)}
		}
		mc.Query, mc.Args = sqlQuery, args

		result, err := q.repo.db.ExecContext(q.ctx, sqlQuery, args...)
		if err != nil {
			return ParsePostgreSQLError(err, "update", table)
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return &Error{Op: "update", Table: table, Err: fmt.Errorf("failed to get rows affected: %w", err)}
		}
		return nil
	})

	return rowsAffected, err
}
