package media

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

const defaultBase = "image"

// File is one image in an upload batch.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Extension returns the lowercased extension of the file name without the dot.
func (f File) Extension() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
}

// Supported reports whether the file's extension is on the image whitelist.
func (f File) Supported() bool {
	_, ok := contentTypes[f.Extension()]
	return ok
}

func (f File) contentType() string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	return contentTypes[f.Extension()]
}

// baseName returns the file name up to its first dot with every character
// outside [A-Za-z0-9_-] replaced by an underscore.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	if strings.Trim(base, "_") == "" {
		return defaultBase
	}
	return base
}

// batchKeys derives one storage key per file:
// <folder>/<unix-millis>-<batch>-<base>.<ext>. Repeated bases within the batch
// receive a -<n> suffix. Distinct batches differ by the batch token, so two
// batches stamped in the same millisecond still produce distinct keys.
func batchKeys(folder string, now time.Time, batch string, files []File) []string {
	stamp := now.UnixMilli()
	seen := make(map[string]int, len(files))
	keys := make([]string, len(files))

	for i, f := range files {
		base := baseName(f.Name)
		n := seen[base]
		seen[base] = n + 1
		if n > 0 {
			base = fmt.Sprintf("%s-%d", base, n)
		}

		name := fmt.Sprintf("%d-%s-%s.%s", stamp, batch, base, f.Extension())
		if folder == "" {
			keys[i] = name
		} else {
			keys[i] = strings.Trim(folder, "/") + "/" + name
		}
	}

	return keys
}
