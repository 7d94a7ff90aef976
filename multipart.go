package netreq

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
)

// buildMultipartBody assembles a multipart/form-data body from files and
// key/value fields, each file part advertising a MIME type derived from its
// suffix. The multipart writer generates its own boundary, which appears
// both in the returned Content-Type and as the part delimiter.
func buildMultipartBody(files []UploadFile, kv map[string]string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range kv {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("multipart: write field %q: %w", k, err)
		}
	}
	for _, f := range files {
		if err := writeMultipartFile(w, f); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart: close: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func writeMultipartFile(w *multipart.Writer, f UploadFile) error {
	src, err := os.Open(f.FilePath)
	if err != nil {
		return fmt.Errorf("multipart: open %s: %w", f.FilePath, err)
	}
	defer src.Close()

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, f.FieldName, f.FileName)}
	header["Content-Type"] = []string{mimeTypeFor(f.FileName)}
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("multipart: create part for %s: %w", f.FileName, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("multipart: copy %s: %w", f.FileName, err)
	}
	return nil
}
