package admin

import (
	"net/http"
	"strconv"

	"github.com/eleven-am/recipe-api/internal/orm"
)

// listPerPage is how many rows a changelist shows
const listPerPage = 100

// pagination holds the links rendered under a changelist
type pagination struct {
	Page     int
	Previous string
	Next     string
}

// pageNumber reads ?p=, counting from zero
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("p"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// paginate selects one page of query, plus one row that tells whether another page follows
func paginate[T any](query *orm.Query[T], page int) *orm.Query[T] {
	return query.Limit(listPerPage + 1).Offset(uint64(page) * listPerPage)
}

// pageRows trims rows to a single page and builds the links around it
func pageRows[T any](r *http.Request, rows []T, page int) ([]T, pagination) {
	pg := pagination{Page: page + 1}
	if page > 0 {
		pg.Previous = pageURL(r, page-1)
	}
	if len(rows) > listPerPage {
		rows = rows[:listPerPage]
		pg.Next = pageURL(r, page+1)
	}
	return rows, pg
}

func pageURL(r *http.Request, page int) string {
	v := r.URL.Query()
	v.Set("p", strconv.Itoa(page))
	return "?" + v.Encode()
}
