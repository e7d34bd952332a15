package store

import (
	"context"
	"encoding/json"
	"fmt"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// doubleSlashSubstitute is the placeholder older settings writers used in
// place of "//" inside authority-URL keys.
const doubleSlashSubstitute = "slashslash"

// LegacyBucket is the settings namespace older releases stored accounts under.
var LegacyBucket = []byte("accounts")

// LegacySource enumerates account records from the pre-snapshot settings
// format. It is consulted once, when no snapshot exists.
type LegacySource interface {
	Entries(ctx context.Context) (map[string]*Account, error)
}

// BoltSource reads legacy account records from a bbolt settings database.
type BoltSource struct {
	path string
}

// NewBoltSource creates a read-only legacy source at path.
func NewBoltSource(path string) *BoltSource {
	return &BoltSource{path: path}
}

// Entries returns every decodable record in the legacy accounts bucket keyed
// by its raw settings key. A missing database yields an empty map.
func (s *BoltSource) Entries(ctx context.Context) (map[string]*Account, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return map[string]*Account{}, nil
		}
		return nil, err
	}
	db, err := bbolt.Open(s.path, 0o600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy settings %v: %w", s.path, err)
	}
	defer db.Close()

	entries := map[string]*Account{}
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(LegacyBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			account := &Account{}
			if err := json.Unmarshal(value, account); err != nil {
				// best effort: skip entries the current format cannot decode
				return nil
			}
			entries[string(key)] = account
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Migrate resolves the account matching authority from legacy entries,
// reversing the double-slash substitution applied to settings keys.
func Migrate(entries map[string]*Account, authority *neturl.URL) (*Account, bool) {
	if authority == nil {
		return nil, false
	}
	want := authority.String()
	for key, account := range entries {
		keyURL, err := neturl.Parse(strings.ReplaceAll(key, doubleSlashSubstitute, "//"))
		if err != nil {
			continue
		}
		if keyURL.String() == want {
			return account, true
		}
	}
	return nil, false
}

// EncodeLegacyKey applies the substitution legacy settings writers used for
// authority-URL keys.
func EncodeLegacyKey(authority string) string {
	return strings.ReplaceAll(authority, "//", doubleSlashSubstitute)
}
