package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
)

// maxUploadSize bounds files read into memory for a multipart request.
const maxUploadSize = 20 << 20

var ErrUploadTooLarge = fmt.Errorf("upload exceeds %d bytes", maxUploadSize)

// upload is a single file plus plain form fields.
type upload struct {
	field    string
	filename string
	file     io.Reader
	fields   [][2]string
}

// encode buffers the whole body and returns it with its content type.
func (u *upload) encode() ([]byte, string, error) {
	if u.file == nil {
		return nil, "", errors.New("no file to upload")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(u.field, filepath.Base(u.filename))
	if err != nil {
		return nil, "", err
	}
	n, err := io.Copy(part, io.LimitReader(u.file, maxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", u.filename, err)
	}
	if n > maxUploadSize {
		return nil, "", ErrUploadTooLarge
	}
	for _, kv := range u.fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
