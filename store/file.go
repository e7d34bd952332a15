package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// FileStore persists the account map as a JSON snapshot addressed by an afs
// URL. The snapshot is written whole on every save; concurrent external
// writers are unsupported and the last write wins.
type FileStore struct {
	fs  afs.Service
	URL string
}

type snapshot struct {
	Accounts map[string]*Account `json:"accounts"`
}

// NewFileStore creates a snapshot store at the given afs URL.
func NewFileStore(URL string) *FileStore {
	return &FileStore{fs: afs.New(), URL: URL}
}

// DefaultURL returns the per-user snapshot location.
func DefaultURL() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return url.Normalize(filepath.Join(base, "metaversekit", "accounts.json"), file.Scheme)
}

func (s *FileStore) Load(ctx context.Context) (map[string]*Account, bool, error) {
	exists, err := s.fs.Exists(ctx, s.URL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check account snapshot %v: %w", s.URL, err)
	}
	if !exists {
		return map[string]*Account{}, false, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, s.URL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load account snapshot %v: %w", s.URL, err)
	}
	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to decode account snapshot %v: %w", s.URL, err)
	}
	if snap.Accounts == nil {
		snap.Accounts = map[string]*Account{}
	}
	return snap.Accounts, true, nil
}

func (s *FileStore) Save(ctx context.Context, accounts map[string]*Account) error {
	data, err := json.MarshalIndent(snapshot{Accounts: accounts}, "", "  ")
	if err != nil {
		return err
	}
	if err = s.fs.Upload(ctx, s.URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write account snapshot %v: %w", s.URL, err)
	}
	return nil
}
