// Package assetstore records image files into the document store.
//
// Files are imported in place: the store keeps the absolute path and size,
// and reads go straight to that path. The assetstore directory only anchors
// the current-assetstore record and any future copy-based backends.
package assetstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"miqa/internal/logging"
	"miqa/internal/services"
	"miqa/internal/store"
)

const (
	defaultName = "local"
	kindFS      = "filesystem"
)

// compound extensions mime.TypeByExtension cannot see.
var mimeOverrides = map[string]string{
	".nii.gz": "application/gzip",
	".nii":    "application/octet-stream",
	".nrrd":   "application/octet-stream",
}

// Assetstore imports files for items of the document store.
type Assetstore struct {
	store  *store.Store
	record *store.Assetstore
	logger *slog.Logger
}

// Open registers root as the current filesystem assetstore.
func Open(ctx context.Context, st *store.Store, root string, logger *slog.Logger) (*Assetstore, error) {
	if st == nil {
		return nil, fmt.Errorf("assetstore: store is nil")
	}
	if strings.TrimSpace(root) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "assetstore", "open", "assetstore root is empty", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assetstore", "open", "create assetstore root", err)
	}
	record, err := st.EnsureCurrentAssetstore(ctx, defaultName, kindFS, root)
	if err != nil {
		return nil, err
	}
	return &Assetstore{
		store:  st,
		record: record,
		logger: logging.NewComponentLogger(logger, "assetstore"),
	}, nil
}

// ImportFile attaches the file at absPath to item under name. The path must
// name an existing regular file.
func (a *Assetstore) ImportFile(ctx context.Context, item *store.Item, absPath, name string) (*store.File, error) {
	if item == nil {
		return nil, fmt.Errorf("import file: item is nil")
	}
	if name == "" {
		name = filepath.Base(absPath)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "assetstore", "import file", absPath, err)
		}
		return nil, fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrValidation, "assetstore", "import file",
			fmt.Sprintf("%s is not a regular file", absPath), nil)
	}

	file, err := a.store.AddFile(ctx, &store.File{
		ItemID:       item.ID,
		AssetstoreID: a.record.ID,
		Name:         name,
		Path:         absPath,
		Size:         info.Size(),
		MimeType:     DetectMimeType(name),
		Imported:     true,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("file imported",
		logging.String("item", item.Name),
		logging.String("path", absPath),
		logging.Int64("size", file.Size),
	)
	return file, nil
}

// Open returns a reader over the bytes of file.
func (a *Assetstore) Open(file *store.File) (io.ReadCloser, error) {
	if file == nil {
		return nil, fmt.Errorf("open file: file is nil")
	}
	f, err := os.Open(file.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "assetstore", "open", file.Path, err)
		}
		return nil, fmt.Errorf("open %s: %w", file.Path, err)
	}
	return f, nil
}

// DetectMimeType guesses a content type from a file name.
func DetectMimeType(name string) string {
	lower := strings.ToLower(name)
	for ext, mt := range mimeOverrides {
		if strings.HasSuffix(lower, ext) {
			return mt
		}
	}
	if mt := mime.TypeByExtension(filepath.Ext(lower)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
