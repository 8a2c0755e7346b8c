package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/storage"
)

// FormatVersion is written into every journal file.
const FormatVersion = "1"

type journalFile struct {
	Version  string                    `json:"version"`
	Accounts map[string][]models.Trade `json:"accounts"`
}

// JournalStore keeps the journal in a JSON file. Every call re-reads the
// file under an OS lock (<path>.lock), so several processes can share one
// journal; appends hold the lock exclusively across read, append and write.
type JournalStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// Open prepares the journal at path and checks that it is readable.
// A missing file is an empty journal.
func Open(path string) (*JournalStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path: %w", storage.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	s := &JournalStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *JournalStore) Path() string {
	return s.path
}

// TradesForAccount returns the account's trades in append order as
// currently on disk.
func (s *JournalStore) TradesForAccount(_ context.Context, account string) ([]models.Trade, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	trades := doc.Accounts[account]
	if trades == nil {
		trades = []models.Trade{}
	}
	return trades, nil
}

// Append adds a trade to the journal on disk. The write is complete when
// Append returns. It returns storage.ErrDuplicateKey when the file already
// holds a trade with the same merge key for the account.
func (s *JournalStore) Append(_ context.Context, account string, trade models.Trade) error {
	if strings.TrimSpace(account) == "" || trade.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	key := trade.MergeKey()
	for _, existing := range doc.Accounts[account] {
		if existing.MergeKey() == key {
			return storage.ErrDuplicateKey
		}
	}

	doc.Accounts[account] = append(doc.Accounts[account], trade)
	return s.save(doc)
}

// Accounts returns the known account identifiers, sorted.
func (s *JournalStore) Accounts(_ context.Context) ([]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	accounts := make([]string, 0, len(doc.Accounts))
	for account := range doc.Accounts {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// read loads the journal under a shared lock.
func (s *JournalStore) read() (journalFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.RLock(); err != nil {
		return journalFile{}, fmt.Errorf("lock journal: %w", err)
	}
	defer s.lock.Unlock()

	return s.load()
}

// load reads the file. The caller holds the OS lock.
func (s *JournalStore) load() (journalFile, error) {
	doc := journalFile{Version: FormatVersion, Accounts: map[string][]models.Trade{}}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read journal %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode journal %s: %w", s.path, err)
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string][]models.Trade{}
	}
	if doc.Version == "" {
		doc.Version = FormatVersion
	}
	return doc, nil
}

// save writes to a temp file, syncs it and renames it over the journal.
// The caller holds the OS lock exclusively.
func (s *JournalStore) save(doc journalFile) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp journal: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("write temp journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp journal: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp journal: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace journal: %w", err)
	}
	return nil
}
