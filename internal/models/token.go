package models

import (
	"time"

	"github.com/eleven-am/recipe-api/internal/orm"
)

// Token is the opaque API key of a user. A user holds at most one.
type Token struct {
	_       struct{}  `dbdef:"table:auth_tokens"`
	Key     string    `db:"key" dbdef:"type:varchar(40);primary_key"`
	UserID  int64     `db:"user_id" dbdef:"type:bigint;not_null;unique;foreign_key:users.id;on_delete:CASCADE"`
	Created time.Time `db:"created" dbdef:"type:timestamptz;not_null;default:now()"`
}

type TokenColumns struct {
	Key    orm.StringColumn
	UserID orm.NumericColumn[int64]
}

var Tokens = TokenColumns{
	Key:    orm.StringColumn{Column: orm.Column[string]{Name: "key", Table: "auth_tokens"}},
	UserID: orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "user_id", Table: "auth_tokens"}}},
}
