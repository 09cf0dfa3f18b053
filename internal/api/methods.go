package api

import (
	"net/http"
	"sort"
	"strings"
)

// methods routes one path by verb. Unlisted verbs answer 405 with an Allow
// header, OPTIONS lists the allowed verbs and HEAD falls back to GET.
type methods map[string]http.HandlerFunc

func (m methods) allowed() string {
	verbs := make([]string, 0, len(m)+2)
	for verb := range m {
		verbs = append(verbs, verb)
	}
	if _, ok := m[http.MethodGet]; ok {
		if _, ok := m[http.MethodHead]; !ok {
			verbs = append(verbs, http.MethodHead)
		}
	}
	verbs = append(verbs, http.MethodOptions)
	sort.Strings(verbs)
	return strings.Join(verbs, ", ")
}

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}

	switch r.Method {
	case http.MethodHead:
		if h, ok := m[http.MethodGet]; ok {
			h(w, r)
			return
		}
	case http.MethodOptions:
		w.Header().Set("Allow", m.allowed())
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Allow", m.allowed())
	writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
}
