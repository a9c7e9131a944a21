// Package cache keeps tokenized encodings keyed by file content so repeat
// runs over the same validation directory skip tokenization.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tokenizer"
)

// Store persists encodings by key.
type Store interface {
	Get(key string) (*tokenizer.Encoding, bool, error)
	Put(key string, enc *tokenizer.Encoding) error
	Close() error
}

// Key identifies one encoding: the file bytes plus everything that changes
// the tokenizer output.
func Key(content []byte, k int, tokName string, opts tokenizer.Options) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(k)))
	h.Write([]byte{0})
	h.Write([]byte(tokName))
	h.Write([]byte{0})
	h.Write([]byte(opts.String()))
	return hex.EncodeToString(h.Sum(nil))
}

type encodingJSON struct {
	InputIDs      [][]int64 `json:"input_ids"`
	AttentionMask [][]int64 `json:"attention_mask,omitempty"`
}

func marshalEncoding(enc *tokenizer.Encoding) ([]byte, error) {
	b, err := json.Marshal(encodingJSON{InputIDs: enc.InputIDs, AttentionMask: enc.AttentionMask})
	if err != nil {
		return nil, fmt.Errorf("error marshalling encoding: %w", err)
	}
	return b, nil
}

func unmarshalEncoding(data []byte) (*tokenizer.Encoding, error) {
	var ej encodingJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return nil, fmt.Errorf("error unmarshalling encoding: %w", err)
	}
	return &tokenizer.Encoding{InputIDs: ej.InputIDs, AttentionMask: ej.AttentionMask}, nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*tokenizer.Encoding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*tokenizer.Encoding)}
}

func (m *MemoryStore) Get(key string) (*tokenizer.Encoding, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	enc, ok := m.entries[key]
	return enc, ok, nil
}

func (m *MemoryStore) Put(key string, enc *tokenizer.Encoding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = enc
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }

// Open returns a LibSQLStore for a non-empty DSN and a MemoryStore otherwise.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		return NewMemoryStore(), nil
	}
	s, err := NewLibSQLStore(dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}
