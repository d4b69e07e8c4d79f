package models

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// multipartWriter creates a multipart writer over buf, for callers that need
// to add more than one file part (buildMultipartAudio only takes one).
func multipartWriter(buf *bytes.Buffer) *multipart.Writer {
	return multipart.NewWriter(buf)
}

// writeFilePart writes one named file part to an open multipart writer.
func writeFilePart(w *multipart.Writer, fieldName, filename string, data []byte) error {
	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		return fmt.Errorf("create form file %s: %w", fieldName, err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write part %s: %w", fieldName, err)
	}
	return nil
}

// buildMultipartAudio wraps a WAV payload as a multipart/form-data body
// under the given field name, returning the body and its content type.
func buildMultipartAudio(fieldName, filename string, wavBytes []byte, extraFields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavBytes); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}

	for k, v := range extraFields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
