package netreq

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tanq16/netreq/internal/errs"
)

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var forbiddenFilenameChars = []string{`\`, "/", "|", `"`, ":", "<", ">"}

func sanitizeFilename(name string) string {
	for _, c := range forbiddenFilenameChars {
		name = strings.ReplaceAll(name, c, "")
	}
	return strings.TrimSpace(name)
}

// filenameFromURL picks a filename: explicit saveFileName wins, else the
// response-content-disposition/content-disposition query parameter (with the
// forbidden characters stripped), else the URL basename, else the literal
// "download".
func filenameFromURL(rawURL, explicit string, headerFilename string) string {
	if explicit != "" {
		return explicit
	}
	if headerFilename != "" {
		return sanitizeFilename(headerFilename)
	}
	if u, err := url.Parse(rawURL); err == nil {
		q := u.Query()
		for _, key := range []string{"response-content-disposition", "content-disposition"} {
			if v := q.Get(key); v != "" {
				if fn := extractDispositionFilename(v); fn != "" {
					return sanitizeFilename(fn)
				}
			}
		}
		base := filepath.Base(u.Path)
		if base != "" && base != "." && base != "/" {
			return sanitizeFilename(base)
		}
	}
	return "download"
}

func extractDispositionFilename(headerValue string) string {
	idx := strings.Index(headerValue, "filename=")
	if idx < 0 {
		return ""
	}
	v := headerValue[idx+len("filename="):]
	v = strings.Trim(v, `"`)
	if semi := strings.IndexByte(v, ';'); semi >= 0 {
		v = v[:semi]
	}
	return strings.TrimSpace(v)
}

// resolveOutputPath computes the destination path for a Download/MTDownload
// request, applying the numeric-suffix-on-conflict policy when Overwrite is
// false.
func resolveOutputPath(rawURL string, cfg *DownloadConfig, headerFilename *string) (string, error) {
	hf := ""
	if headerFilename != nil {
		hf = *headerFilename
	}
	name := filenameFromURL(rawURL, cfg.SaveFileName, hf)
	target := filepath.Join(cfg.SaveDir, name)
	if cfg.Overwrite {
		return target, nil
	}
	if !pathExists(target) {
		return target, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= 99; i++ {
		candidate := filepath.Join(cfg.SaveDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", errs.ErrSuffixExhausted
}
