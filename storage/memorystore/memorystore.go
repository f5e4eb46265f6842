// Package memorystore implements storage.Store in a purely in-memory manner.
// It backs the shell in browser-like hosts that bring their own persistence,
// and it is the store of choice in tests.
package memorystore

import (
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/finmar/clientshell/storage"
)

// New returns a store that provides transient, in-memory storage.
func New() storage.Store {
	return &store{
		data: map[string]map[string][]byte{},
	}
}

type store struct {
	// data[tableName][entityID] = JSON
	data map[string]map[string][]byte
	mu   sync.RWMutex
}

func (s *store) Create(models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if err := storage.ValidateReceiver(m); err != nil {
			return err
		}
		n := storage.Name(m)
		if s.data[n] != nil && s.data[n][m.PK()] != nil {
			return storage.ErrAlreadyExists
		}
	}
	return s.put(models)
}

func (s *store) Read(id string, model storage.Model) error {
	if err := storage.ValidateReceiver(model); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := storage.Name(model)
	if s.data[n] == nil || s.data[n][id] == nil {
		return storage.ErrNotFound
	}
	return json.Unmarshal(s.data[n][id], model)
}

func (s *store) Update(models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if err := storage.ValidateReceiver(m); err != nil {
			return err
		}
		n := storage.Name(m)
		if s.data[n] == nil || s.data[n][m.PK()] == nil {
			return storage.ErrNotFound
		}
	}
	return s.put(models)
}

func (s *store) Upsert(models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range models {
		if err := storage.ValidateReceiver(m); err != nil {
			return err
		}
	}
	return s.put(models)
}

// put writes models without validation. Callers hold the write lock.
func (s *store) put(models []storage.Model) error {
	for _, m := range models {
		n := storage.Name(m)
		if s.data[n] == nil {
			s.data[n] = map[string][]byte{}
		}
		jsonBytes, err := json.Marshal(m)
		if err != nil {
			return storage.ErrInvalidModel
		}
		s.data[n][m.PK()] = jsonBytes
	}
	return nil
}

func (s *store) Delete(model storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := storage.Name(model)
	id := model.PK()
	if s.data[n] == nil || s.data[n][id] == nil {
		return storage.ErrNotFound
	}
	delete(s.data[n], id)
	return nil
}

// List always performs a full scan of the model's table, in primary-key
// order.
func (s *store) List(models any, filter storage.Model) error {
	modelsVal := reflect.ValueOf(models)
	if modelsVal.Kind() != reflect.Ptr || modelsVal.Elem().Kind() != reflect.Slice {
		return storage.ErrSliceRequired
	}
	sliceVal := modelsVal.Elem()
	elemType := sliceVal.Type().Elem()
	if elemType != reflect.TypeOf(filter) {
		return storage.ErrTypeMismatch
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table := s.data[storage.Name(filter)]
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		newElemPtr := reflect.New(elemType)
		if err := json.Unmarshal(table[id], newElemPtr.Interface()); err != nil {
			return storage.ErrInvalidModel
		}
		if matchesFilter(newElemPtr.Elem(), reflect.ValueOf(filter)) {
			sliceVal.Set(reflect.Append(sliceVal, newElemPtr.Elem()))
		}
	}

	return nil
}

func (s *store) Exists(id string, model storage.Model) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := storage.Name(model)
	if s.data[n] == nil || s.data[n][id] == nil {
		return false, nil
	}
	return true, nil
}

// matchesFilter applies the same semantics the SQL stores use: zero-value
// fields are ignored, unless the field is a pointer.
func matchesFilter(record, filter reflect.Value) bool {
	for i := 0; i < filter.NumField(); i++ {
		f := filter.Field(i)
		switch {
		case f.Kind() == reflect.Ptr && !f.IsNil():
			r := record.Field(i)
			if r.IsNil() || !reflect.DeepEqual(f.Elem().Interface(), r.Elem().Interface()) {
				return false
			}
		case f.Kind() != reflect.Ptr && !f.IsZero():
			if !reflect.DeepEqual(f.Interface(), record.Field(i).Interface()) {
				return false
			}
		}
	}
	return true
}
