package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var errUnsupportedMediaType = errors.New("unsupported media type")

// parseError is a malformed body; it renders as a 400 detail
type parseError struct {
	msg string
}

func (e *parseError) Error() string { return e.msg }

// payload is a decoded request body: JSON objects keep their value types,
// form fields arrive as strings
type payload map[string]interface{}

// decodePayload reads a JSON, urlencoded or multipart body
func decodePayload(r *http.Request) (payload, error) {
	if r.Body == nil || r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
		return payload{}, nil
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w %q", errUnsupportedMediaType, ct)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/json":
		return decodeJSONPayload(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, &parseError{msg: "Malformed form data."}
		}
		return formPayload(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, &parseError{msg: "Multipart form parse error - " + err.Error()}
		}
		return formPayload(r.MultipartForm.Value), nil
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedMediaType, mediaType)
	}
}

func decodeJSONPayload(r *http.Request) (payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, &parseError{msg: "JSON parse error - " + err.Error()}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return payload{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, &parseError{msg: "JSON parse error - " + err.Error()}
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &parseError{msg: "Invalid data. Expected a dictionary, but got " + jsonTypeName(raw) + "."}
	}
	return payload(obj), nil
}

func formPayload(values map[string][]string) payload {
	p := make(payload, len(values))
	for k, v := range values {
		if len(v) > 0 {
			p[k] = v[len(v)-1]
		}
	}
	return p
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "list"
	case string:
		return "str"
	case json.Number:
		return "int"
	case bool:
		return "bool"
	case nil:
		return "NoneType"
	default:
		return "object"
	}
}

func (p payload) has(key string) bool {
	_, ok := p[key]
	return ok
}

// str reads a char field. Numbers are accepted and rendered as text.
func (p payload) str(key string, trim bool, errs FieldErrors) *string {
	v, ok := p[key]
	if !ok {
		return nil
	}

	var s string
	switch val := v.(type) {
	case nil:
		errs.Add(key, msgNull)
		return nil
	case string:
		s = val
	case json.Number:
		s = val.String()
	default:
		errs.Add(key, msgNotString)
		return nil
	}

	if trim {
		s = strings.TrimSpace(s)
	}
	return &s
}

// integer reads an integer field from a number or numeric string
func (p payload) integer(key string, errs FieldErrors) *int {
	v, ok := p[key]
	if !ok {
		return nil
	}

	var text string
	switch val := v.(type) {
	case nil:
		errs.Add(key, msgNull)
		return nil
	case json.Number:
		text = val.String()
	case string:
		text = strings.TrimSpace(val)
	default:
		errs.Add(key, msgInvalidInteger)
		return nil
	}

	if n, err := strconv.Atoi(text); err == nil {
		return &n
	}

	// integral decimals such as "20.0" are accepted
	d, err := decimal.NewFromString(text)
	if err != nil || !d.Equal(d.Truncate(0)) || !d.Truncate(0).BigInt().IsInt64() {
		errs.Add(key, msgInvalidInteger)
		return nil
	}
	n := int(d.IntPart())
	return &n
}

// number reads a decimal field as its literal text so precision checks see
// exactly what the client sent
func (p payload) number(key string, errs FieldErrors) *string {
	v, ok := p[key]
	if !ok {
		return nil
	}

	var text string
	switch val := v.(type) {
	case nil:
		errs.Add(key, msgNull)
		return nil
	case json.Number:
		text = val.String()
	case string:
		text = strings.TrimSpace(val)
	default:
		errs.Add(key, msgInvalidNumber)
		return nil
	}

	if _, err := decimal.NewFromString(text); err != nil {
		errs.Add(key, msgInvalidNumber)
		return nil
	}
	return &text
}
