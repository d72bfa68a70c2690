package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStoreはローカルディスク上のオブジェクトストア。
// bucket/objectName をそのままルート配下のパスに写す
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Open(_ context.Context, bucket string, objectName string) (io.ReadCloser, error) {
	// パストラバーサルを通さない
	clean := filepath.Join(s.root, filepath.Clean("/"+bucket), filepath.Clean("/"+objectName))
	if !strings.HasPrefix(clean, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return nil, os.ErrNotExist
	}

	return os.Open(clean)
}
