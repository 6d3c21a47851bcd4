package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"casechain/storage"
)

// Manager is a journaled view over the backing database. Reads fall through
// to the database unless the key was written in this transaction; writes stay
// in the journal until Commit flushes them in one atomic batch.
type Manager struct {
	db      storage.Database
	journal map[string]*journalEntry
	order   []string
}

type journalEntry struct {
	value   []byte
	deleted bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, journal: make(map[string]*journalEntry)}
}

func kvKey(parts ...[]byte) []byte {
	return ethcrypto.Keccak256(parts...)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state manager unavailable")
	}
	if entry, ok := m.journal[string(key)]; ok {
		if entry.deleted {
			return nil, nil
		}
		return entry.value, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (m *Manager) put(key, value []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	k := string(key)
	if _, ok := m.journal[k]; !ok {
		m.order = append(m.order, k)
	}
	m.journal[k] = &journalEntry{value: append([]byte(nil), value...)}
	return nil
}

func (m *Manager) remove(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	k := string(key)
	if _, ok := m.journal[k]; !ok {
		m.order = append(m.order, k)
	}
	m.journal[k] = &journalEntry{deleted: true}
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, err := m.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.put(key, encoded)
}

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	out := new(big.Int)
	if _, err := m.getRLP(key, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) putBig(key []byte, value *big.Int) error {
	if value == nil {
		value = big.NewInt(0)
	}
	if value.Sign() < 0 {
		return fmt.Errorf("state: negative amount")
	}
	return m.putRLP(key, value)
}

func (m *Manager) getUint(key []byte) (uint64, error) {
	var out uint64
	if _, err := m.getRLP(key, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func (m *Manager) putUint(key []byte, value uint64) error {
	return m.putRLP(key, value)
}

// Pending reports the number of journaled writes.
func (m *Manager) Pending() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Commit flushes the journal to the database atomically and resets it.
func (m *Manager) Commit() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if len(m.order) == 0 {
		return nil
	}
	batch := m.db.NewBatch()
	for _, k := range m.order {
		entry := m.journal[k]
		if entry.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), entry.value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.Discard()
	return nil
}

// Discard drops every journaled write.
func (m *Manager) Discard() {
	if m == nil {
		return
	}
	m.journal = make(map[string]*journalEntry)
	m.order = nil
}
