package export

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Deliverer hands an assembled document to its destination and returns a
// description of where it went.
type Deliverer interface {
	Deliver(ctx context.Context, doc Document) (string, error)
}

// FileDeliverer saves documents into Dir. Content goes to a temporary file
// first and is renamed into place, so a failed write never leaves a partial
// export behind. Existing files are kept unless Overwrite is set, in which
// case a numeric suffix is not added and the old file is replaced.
type FileDeliverer struct {
	Dir       string
	Overwrite bool
}

// Deliver writes doc and returns the final path.
func (d FileDeliverer) Deliver(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, ".mdeditor-export-*.html")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %v", ErrDeliver, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(doc.HTML); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: writing temp file: %v", ErrDeliver, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: closing temp file: %v", ErrDeliver, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { // #nosec G302 -- exported documents are meant to be shared
		return "", fmt.Errorf("%w: %v", ErrDeliver, err)
	}

	name := doc.Filename
	if name == "" {
		name = DefaultFileStem + Extension
	}
	target := filepath.Join(dir, filepath.Base(name))
	if !d.Overwrite {
		target = availablePath(target)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliver, err)
	}
	committed = true
	return target, nil
}

// availablePath appends -1, -2, ... before the extension until the path is
// unused.
func availablePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// HTTPDeliverer streams documents as a download attachment.
type HTTPDeliverer struct {
	W http.ResponseWriter
}

// Deliver writes the response and returns the attachment filename.
func (d HTTPDeliverer) Deliver(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := d.W.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", ContentDisposition(doc.Filename))
	h.Set("Content-Length", strconv.Itoa(len(doc.HTML)))
	h.Set("X-Content-Type-Options", "nosniff")
	d.W.WriteHeader(http.StatusOK)

	if _, err := d.W.Write(doc.HTML); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeliver, err)
	}
	return doc.Filename, nil
}

// ContentDisposition builds an attachment header value. Non-ASCII names are
// encoded per RFC 2231.
func ContentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
