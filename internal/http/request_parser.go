package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

const (
	maxBodyBytes   = 64 << 10
	maxImportBytes = 10 << 20
	importField    = "file"
)

// requestError is a malformed request, as opposed to rejected ledger input.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *requestError) Unwrap() error { return e.err }

// amountText keeps the amount as the caller wrote it. JSON numbers are
// accepted as well as strings.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountText(n.String())
	return nil
}

// formRequest is a body that can also arrive form-encoded.
type formRequest interface {
	fromForm(url.Values)
}

type monthRequest struct {
	Name string `json:"name"`
}

func (m *monthRequest) fromForm(v url.Values) { m.Name = v.Get("name") }

type expenseRequest struct {
	Description string     `json:"description"`
	Amount      amountText `json:"amount"`
}

func (e *expenseRequest) fromForm(v url.Values) {
	e.Description = v.Get("description")
	e.Amount = amountText(v.Get("amount"))
}

type incomeRequest struct {
	Source string     `json:"source"`
	Amount amountText `json:"amount"`
}

func (i *incomeRequest) fromForm(v url.Values) {
	i.Source = v.Get("source")
	i.Amount = amountText(v.Get("amount"))
}

// decodeRequest fills dst from a JSON or form-encoded body.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst formRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if mediaType(r) == "application/json" {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil {
			if errors.Is(err, io.EOF) {
				return &requestError{msg: "empty request body"}
			}
			return bodyError("invalid JSON body", err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return bodyError("invalid form body", err)
	}
	dst.fromForm(r.PostForm)
	return nil
}

// readImportDocument returns the uploaded document, either the multipart
// field "file" or the raw request body.
func readImportDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if mediaType(r) == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, bodyError("invalid multipart body", err)
		}
		f, _, err := r.FormFile(importField)
		if err != nil {
			return nil, &requestError{msg: fmt.Sprintf("missing %q file field", importField), err: err}
		}
		defer f.Close()
		doc, err := io.ReadAll(f)
		if err != nil {
			return nil, bodyError("read uploaded file", err)
		}
		return doc, nil
	}

	doc, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError("read request body", err)
	}
	return doc, nil
}

// pathIndex reads a positional path segment. Range checks are left to the
// ledger so that out-of-range positions report as not found.
func pathIndex(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &requestError{msg: fmt.Sprintf("%s must be an integer position, got %q", name, raw)}
	}
	return i, nil
}

func pathIndexes(r *http.Request) (month, item int, err error) {
	if month, err = pathIndex(r, "month"); err != nil {
		return 0, 0, err
	}
	if item, err = pathIndex(r, "item"); err != nil {
		return 0, 0, err
	}
	return month, item, nil
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func bodyError(msg string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return &requestError{msg: msg, err: err}
}
