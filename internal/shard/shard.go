// Package shard provides the lock table that guards shard directories.
//
// Every filesystem mutation happens under exactly one shard's write lock,
// except Clear which holds all of them. Locks are acquired through methods
// that return a release func, so call sites read as
//
//	release := t.Lock(id)
//	defer release()
package shard

import (
	"sync"

	"github.com/aweris/keeper/internal/addr"
)

// Count is the number of locks in a Table.
const Count = addr.ShardCount

// Table is a fixed array of reader-writer locks indexed by shard id.
// The zero value is ready to use. A Table must not be copied.
type Table struct {
	locks [Count]sync.RWMutex
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// RLock takes the read lock of shard id.
func (t *Table) RLock(id int) (release func()) {
	l := &t.locks[id]
	l.RLock()
	return l.RUnlock
}

// Lock takes the write lock of shard id.
func (t *Table) Lock(id int) (release func()) {
	l := &t.locks[id]
	l.Lock()
	return l.Unlock
}

// TryRLock takes the read lock of shard id if it is free.
func (t *Table) TryRLock(id int) (release func(), ok bool) {
	l := &t.locks[id]
	if !l.TryRLock() {
		return nil, false
	}
	return l.RUnlock, true
}

// TryLock takes the write lock of shard id if no reader or writer holds it.
func (t *Table) TryLock(id int) (release func(), ok bool) {
	l := &t.locks[id]
	if !l.TryLock() {
		return nil, false
	}
	return l.Unlock, true
}

// LockAll takes every write lock in ascending id order. The returned func
// releases them in reverse order.
func (t *Table) LockAll() (release func()) {
	for i := range t.locks {
		t.locks[i].Lock()
	}
	return func() {
		for i := len(t.locks) - 1; i >= 0; i-- {
			t.locks[i].Unlock()
		}
	}
}
