package vacation

import (
	"fmt"
	"sync"
)

// =============================================================================
// KEYED MUTEX - Per-(employee, year) serialization scope
// =============================================================================

// keyedMutex serializes mutating operations per balance key. Every
// read-check-write against a (employee, year) snapshot runs under the key's
// lock; reads stay lock-free. Entries are reference-counted so idle keys
// do not accumulate.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release function.
func (km *keyedMutex) Lock(key string) (unlock func()) {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[string]*keyLock)
	}
	l := km.locks[key]
	if l == nil {
		l = &keyLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

func balanceKey(employeeID EmployeeID, year int) string {
	return fmt.Sprintf("%s:%d", employeeID, year)
}
