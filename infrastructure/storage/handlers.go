package storage

import "sync"

// Handlers is a table of change handlers keyed by event key, notifiers use it
// to fan one event stream out to the subscribers of each key
type Handlers struct {
	mutex    sync.RWMutex
	handlers map[string]map[uint64]ChangeHandler
	nextId   uint64
	total    int
}

func NewHandlers() *Handlers {
	return &Handlers{handlers: make(map[string]map[uint64]ChangeHandler, 4)}
}

// Add registers handler for key and returns the id Remove takes
func (table *Handlers) Add(key string, handler ChangeHandler) uint64 {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	table.nextId++
	if table.handlers[key] == nil {
		table.handlers[key] = make(map[uint64]ChangeHandler, 2)
	}
	table.handlers[key][table.nextId] = handler
	table.total++
	return table.nextId
}

// Remove drops a handler and returns how many handlers are left for all keys
func (table *Handlers) Remove(key string, id uint64) int {
	table.mutex.Lock()
	defer table.mutex.Unlock()

	if _, ok := table.handlers[key][id]; ok {
		delete(table.handlers[key], id)
		table.total--
		if len(table.handlers[key]) == 0 {
			delete(table.handlers, key)
		}
	}
	return table.total
}

// Dispatch calls the handlers of event.Key outside the table lock
func (table *Handlers) Dispatch(event ChangeEvent) {
	table.mutex.RLock()
	handlers := make([]ChangeHandler, 0, len(table.handlers[event.Key]))
	for _, handler := range table.handlers[event.Key] {
		handlers = append(handlers, handler)
	}
	table.mutex.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (table *Handlers) Len(key string) int {
	table.mutex.RLock()
	defer table.mutex.RUnlock()
	return len(table.handlers[key])
}

func (table *Handlers) Total() int {
	table.mutex.RLock()
	defer table.mutex.RUnlock()
	return table.total
}
