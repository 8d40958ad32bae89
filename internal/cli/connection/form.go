package connection

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// Form is a binary request body. The client never adds a JSON
// Content-Type to it: the form's own ContentType (for multipart, the one
// carrying the boundary) is sent, or none at all when it is empty.
type Form struct {
	Body        io.Reader
	ContentType string
}

// FormFile is one file part of a multipart form.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// NewMultipartForm encodes fields and files as multipart/form-data.
func NewMultipartForm(fields map[string]string, files ...FormFile) (*Form, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return &Form{Body: &buf, ContentType: w.FormDataContentType()}, nil
}
