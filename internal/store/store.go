package store

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrUniqueConstraint = errors.New("unique constraint violated")
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Change is one committed modification of a record.
type Change struct {
	Time   time.Time `yaml:"time"`
	Table  string    `yaml:"table"`
	Action string    `yaml:"action"`
	ID     string    `yaml:"id"`
}

// Store is the in-memory record store. Write transactions are serialized and
// not reentrant: never call Write from inside a Write callback.
type Store struct {
	db  *memdb.MemDB
	log *logrus.Entry

	mu      sync.Mutex
	changes []Change
}

type Txn struct {
	txn *memdb.Txn
}

type cloner[T any] interface {
	Clone() T
}

func New(log *logrus.Entry) (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}

	return &Store{
		db:  db,
		log: log,
	}, nil
}

// Write runs fn in a single write transaction, committed when fn returns nil
// and aborted otherwise.
func (s *Store) Write(fn func(txn *Txn) error) error {
	txn := s.db.Txn(true)
	txn.TrackChanges()
	defer txn.Abort()

	if err := fn(&Txn{txn: txn}); err != nil {
		return err
	}

	changes := txn.Changes()
	txn.Commit()
	s.track(changes)

	return nil
}

// Read runs fn against a consistent snapshot.
func (s *Store) Read(fn func(txn *Txn) error) error {
	txn := s.db.Txn(false)
	defer txn.Abort()

	return fn(&Txn{txn: txn})
}

// Changes returns the change log since the store was created.
func (s *Store) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Change(nil), s.changes...)
}

func (s *Store) track(changes memdb.Changes) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, change := range changes {
		c := Change{Time: now, Table: change.Table}

		switch {
		case change.Created():
			c.Action, c.ID = ActionInsert, recordID(change.After)
		case change.Deleted():
			c.Action, c.ID = ActionDelete, recordID(change.Before)
		default:
			c.Action, c.ID = ActionUpdate, recordID(change.After)
		}

		s.changes = append(s.changes, c)
		s.log.WithFields(logrus.Fields{"table": c.Table, "action": c.Action, "id": c.ID}).Debug("record changed")
	}
}

func recordID(obj any) string {
	return fieldString(obj, "ID")
}

func fieldString(obj any, field string) string {
	v := reflect.Indirect(reflect.ValueOf(obj))
	if v.Kind() != reflect.Struct {
		return ""
	}
	return v.FieldByName(field).String()
}

func newID() string {
	return uuid.NewString()
}

func (t *Txn) insert(table string, obj any) error {
	if err := t.checkUnique(table, obj); err != nil {
		return err
	}

	if err := t.txn.Insert(table, obj); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

// checkUnique enforces unique secondary indexes, which memdb does not.
func (t *Txn) checkUnique(table string, obj any) error {
	id := recordID(obj)

	for _, idx := range tables[table] {
		if !idx.unique {
			continue
		}

		value := fieldString(obj, idx.field)
		if value == "" {
			continue
		}

		existing, err := t.txn.First(table, idx.name, value)
		if err != nil {
			return fmt.Errorf("failed to query %s by %s: %w", table, idx.name, err)
		}

		if existing != nil && recordID(existing) != id {
			return fmt.Errorf("%s with %s %q already exists: %w", table, idx.name, value, ErrUniqueConstraint)
		}
	}

	return nil
}

func (t *Txn) remove(table, id string) error {
	existing, err := t.txn.First(table, indexID, id)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}

	if existing == nil {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}

	if err := t.txn.Delete(table, existing); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return nil
}

func first[T cloner[T]](t *Txn, table, index, value string) (T, error) {
	var zero T

	raw, err := t.txn.First(table, index, value)
	if err != nil {
		return zero, fmt.Errorf("failed to query %s by %s: %w", table, index, err)
	}

	if raw == nil {
		return zero, fmt.Errorf("%s with %s %q: %w", table, index, value, ErrNotFound)
	}

	return raw.(T).Clone(), nil
}

func list[T cloner[T]](t *Txn, table, index string, args ...any) ([]T, error) {
	it, err := t.txn.Get(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s by %s: %w", table, index, err)
	}

	result := make([]T, 0)
	for raw := it.Next(); raw != nil; raw = it.Next() {
		result = append(result, raw.(T).Clone())
	}

	return result, nil
}

func all[T cloner[T]](t *Txn, table string) ([]T, error) {
	return list[T](t, table, indexID)
}
