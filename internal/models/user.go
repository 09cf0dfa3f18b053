package models

import (
	"time"

	"github.com/eleven-am/recipe-api/internal/orm"
)

// User is an account identified by email
type User struct {
	_           struct{}   `dbdef:"table:users"`
	ID          int64      `db:"id" dbdef:"type:bigint;primary_key;identity"`
	Email       string     `db:"email" dbdef:"type:varchar(255);not_null;unique"`
	Password    string     `db:"password" dbdef:"type:varchar(255);not_null"`
	Name        string     `db:"name" dbdef:"type:varchar(255);not_null;default:''"`
	IsActive    bool       `db:"is_active" dbdef:"type:boolean;not_null;default:true"`
	IsStaff     bool       `db:"is_staff" dbdef:"type:boolean;not_null;default:false"`
	IsSuperuser bool       `db:"is_superuser" dbdef:"type:boolean;not_null;default:false"`
	LastLogin   *time.Time `db:"last_login" dbdef:"type:timestamptz"`
}

func (u User) String() string {
	return u.Email
}

// UserColumns names the users table columns for building conditions
type UserColumns struct {
	ID          orm.NumericColumn[int64]
	Email       orm.StringColumn
	Name        orm.StringColumn
	IsActive    orm.BoolColumn
	IsStaff     orm.BoolColumn
	IsSuperuser orm.BoolColumn
	LastLogin   orm.TimeColumn
}

var Users = UserColumns{
	ID:          orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "users"}}},
	Email:       orm.StringColumn{Column: orm.Column[string]{Name: "email", Table: "users"}},
	Name:        orm.StringColumn{Column: orm.Column[string]{Name: "name", Table: "users"}},
	IsActive:    orm.BoolColumn{Column: orm.Column[bool]{Name: "is_active", Table: "users"}},
	IsStaff:     orm.BoolColumn{Column: orm.Column[bool]{Name: "is_staff", Table: "users"}},
	IsSuperuser: orm.BoolColumn{Column: orm.Column[bool]{Name: "is_superuser", Table: "users"}},
	LastLogin:   orm.TimeColumn{ComparableColumn: orm.ComparableColumn[time.Time]{Column: orm.Column[time.Time]{Name: "last_login", Table: "users"}}},
}
