package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"orcamento/internal/core"
	applog "orcamento/internal/log"
)

// Error codes carried in error bodies.
const (
	codeValidation  = "validation_error"
	codeNotFound    = "not_found"
	codeImport      = "invalid_import"
	codeBadRequest  = "bad_request"
	codeTooLarge    = "payload_too_large"
	codeRateLimited = "rate_limited"
	codeInternal    = "internal_error"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
	raw        []byte
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// Attachment marks the response as a file download.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Body sets a value to be encoded as JSON.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Raw sets an already encoded JSON document.
func (b *JSONResponseBuilder) Raw(doc []byte) *JSONResponseBuilder {
	b.raw = doc
	b.body = nil
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	payload := b.raw
	if payload == nil {
		var err error
		if payload, err = json.Marshal(b.body); err != nil {
			http.Error(w, `{"error":{"code":"internal_error","message":"encode response"}}`, http.StatusInternalServerError)
			return err
		}
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	for k, v := range b.headers {
		h.Set(k, v)
	}
	w.WriteHeader(b.statusCode)
	_, err := w.Write(payload)
	return err
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyError maps an error to its status and code. Internal errors get
// a generic message.
func classifyError(err error) (int, errorDetail) {
	var (
		reqErr   *requestError
		tooLarge *http.MaxBytesError
	)
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, errorDetail{codeValidation, err.Error()}
	case core.IsIndex(err):
		return http.StatusNotFound, errorDetail{codeNotFound, err.Error()}
	case core.IsImport(err):
		return http.StatusBadRequest, errorDetail{codeImport, err.Error()}
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, errorDetail{codeBadRequest, err.Error()}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorDetail{codeTooLarge, "request body too large"}
	default:
		return http.StatusInternalServerError, errorDetail{codeInternal, "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classifyError(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
	}
	_ = NewJSONResponse().Status(status).Body(errorBody{Error: detail}).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	_ = NewJSONResponse().Status(status).Body(v).Write(w)
}
