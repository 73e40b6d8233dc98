package repositories

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DenylistRepository is the durable ban list. Once an account id is
// added it blocks every future authentication until removed.
type DenylistRepository struct {
	db *badger.DB
}

func NewDenylistRepository(db *badger.DB) *DenylistRepository {
	return &DenylistRepository{db: db}
}

type denyEntry struct {
	Reason string `json:"reason"`
	At     int64  `json:"at"`
}

func denyKey(accountID string) []byte { return []byte("ban:" + accountID) }

func (r *DenylistRepository) Add(accountID, reason string) error {
	data, err := json.Marshal(denyEntry{Reason: reason, At: time.Now().UTC().Unix()})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(denyKey(accountID), data)
	})
}

func (r *DenylistRepository) Contains(accountID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(denyKey(accountID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove lifts a ban. Removing an absent entry is a no-op.
func (r *DenylistRepository) Remove(accountID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(denyKey(accountID))
	})
}

// List returns all banned account ids, for the operator viewer.
func (r *DenylistRepository) List() ([]string, error) {
	var ids []string
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("ban:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), "ban:"))
		}
		return nil
	})
	return ids, err
}
