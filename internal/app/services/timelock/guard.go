package timelock

import (
	"fmt"
	"strings"
	"sync"
)

// Guard is the single-principal access capability gating every mutating
// operation. It compares caller identities against the current controller;
// it is injected into the service rather than inherited from.
type Guard struct {
	mu         sync.RWMutex
	controller string // empty once renounced
}

// NewGuard creates a guard for the given controller identity.
func NewGuard(controller string) (*Guard, error) {
	controller = strings.TrimSpace(controller)
	if controller == "" {
		return nil, fmt.Errorf("controller identity required")
	}
	return &Guard{controller: controller}, nil
}

// Authorize reports whether the caller is the current controller. After
// renouncement no caller ever authorizes.
func (g *Guard) Authorize(caller string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.controller != "" && caller == g.controller
}

// Controller returns the current controller identity, or empty when renounced.
func (g *Guard) Controller() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.controller
}

// TransferControl hands control to a new identity. Only the current
// controller may transfer.
func (g *Guard) TransferControl(caller, next string) error {
	next = strings.TrimSpace(next)
	if next == "" {
		return fmt.Errorf("new controller identity required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller == "" || caller != g.controller {
		return ErrNotAuthorized
	}
	g.controller = next
	return nil
}

// Renounce permanently abandons control. Only the current controller may
// renounce; afterwards every mutating operation fails authorization.
func (g *Guard) Renounce(caller string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller == "" || caller != g.controller {
		return ErrNotAuthorized
	}
	g.controller = ""
	return nil
}
