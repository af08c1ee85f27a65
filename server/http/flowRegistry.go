package http_server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.faza.io/order-project/storefront-service/domain/returns"
)

const DefaultFlowTTL = 30 * time.Minute

type flowSession struct {
	owner   string
	flow    *returns.Flow
	touched time.Time
}

// FlowRegistry keeps the open return flows of every buyer. A flow is only
// visible to the buyer that opened it and expires after ttl without use.
type FlowRegistry struct {
	mutex    sync.Mutex
	ttl      time.Duration
	clock    func() time.Time
	sessions map[string]*flowSession
}

func NewFlowRegistry(ttl time.Duration, clock func() time.Time) *FlowRegistry {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &FlowRegistry{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]*flowSession, 64),
	}
}

// Open registers flow for owner, which must not be empty
func (registry *FlowRegistry) Open(owner string, flow *returns.Flow) string {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	registry.pruneLocked()
	flowId := uuid.NewString()
	registry.sessions[flowId] = &flowSession{owner: owner, flow: flow, touched: registry.clock()}
	return flowId
}

func (registry *FlowRegistry) Get(owner, flowId string) (*returns.Flow, bool) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	session, ok := registry.sessions[flowId]
	if !ok || owner == "" || session.owner != owner {
		return nil, false
	}

	now := registry.clock()
	if now.Sub(session.touched) > registry.ttl {
		delete(registry.sessions, flowId)
		return nil, false
	}
	session.touched = now
	return session.flow, true
}

func (registry *FlowRegistry) Close(owner, flowId string) bool {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	session, ok := registry.sessions[flowId]
	if !ok || session.owner != owner {
		return false
	}
	delete(registry.sessions, flowId)
	return true
}

// DropOwner closes every flow of owner and returns how many were open, an
// empty owner matches nothing
func (registry *FlowRegistry) DropOwner(owner string) int {
	if owner == "" {
		return 0
	}
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	dropped := 0
	for flowId, session := range registry.sessions {
		if session.owner == owner {
			delete(registry.sessions, flowId)
			dropped++
		}
	}
	return dropped
}

func (registry *FlowRegistry) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.sessions)
}

func (registry *FlowRegistry) pruneLocked() {
	now := registry.clock()
	for flowId, session := range registry.sessions {
		if now.Sub(session.touched) > registry.ttl {
			delete(registry.sessions, flowId)
		}
	}
}
