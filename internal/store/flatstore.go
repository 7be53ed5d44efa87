package store

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FlatStore is a synchronous string key-value store backed by a single
// JSON file, the moral equivalent of browser localStorage. Every write
// rewrites the whole file; write failures propagate to the caller.
type FlatStore struct {
	path string
	mu   sync.Mutex
	docs map[string]jsoniter.RawMessage
}

// OpenFlat loads the document file at path. A missing or malformed file
// starts the store empty rather than failing.
func OpenFlat(path string) *FlatStore {
	fs := &FlatStore{path: path, docs: map[string]jsoniter.RawMessage{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return fs
	}
	if err := jsoniter.Unmarshal(data, &fs.docs); err != nil {
		zap.L().Warn("flatstore: discarding malformed document file",
			zap.String("path", path), zap.Error(err))
		fs.docs = map[string]jsoniter.RawMessage{}
	}
	return fs
}

func (s *FlatStore) GetDoc(key string, out interface{}) bool {
	s.mu.Lock()
	raw, found := s.docs[key]
	s.mu.Unlock()
	if !found {
		return false
	}
	if err := jsoniter.Unmarshal(raw, out); err != nil {
		zap.L().Warn("flatstore: malformed document treated as absent",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *FlatStore) PutDoc(key string, v interface{}) error {
	data, err := jsoniter.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "flatstore: encode %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.docs[key]
	s.docs[key] = data
	if err := s.flush(); err != nil {
		if had {
			s.docs[key] = prev
		} else {
			delete(s.docs, key)
		}
		return err
	}
	return nil
}

func (s *FlatStore) DeleteDoc(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.docs[key]
	if !had {
		return nil
	}
	delete(s.docs, key)
	if err := s.flush(); err != nil {
		s.docs[key] = prev
		return err
	}
	return nil
}

// GetString reads a bare string document, empty when absent.
func (s *FlatStore) GetString(key string) string {
	var v string
	s.GetDoc(key, &v)
	return v
}

func (s *FlatStore) PutString(key, value string) error {
	return s.PutDoc(key, value)
}

func (s *FlatStore) flush() error {
	data, err := jsoniter.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "flatstore: encode store")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, "flatstore: write %s", s.path)
	}
	return nil
}
