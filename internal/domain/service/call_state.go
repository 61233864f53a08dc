package service

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CallState is one of the six lifecycle states a call moves through.
type CallState string

const (
	StateConnecting CallState = "connecting"
	StateGreeting   CallState = "greeting"
	StateListening  CallState = "listening"
	StateResponding CallState = "responding"
	StateInTool     CallState = "in-tool"
	StateClosing    CallState = "closing"
)

// validCallTransitions enumerates the allowed moves. greeting/listening/
// responding/in-tool form a cluster that can move freely among themselves —
// the distinction between them is a telemetry concern, not a control-flow
// one (SPEC_FULL.md §4.7) — but every state can fall through to closing.
var validCallTransitions = map[CallState]map[CallState]bool{
	StateConnecting: {StateGreeting: true, StateClosing: true},
	StateGreeting:   {StateListening: true, StateResponding: true, StateInTool: true, StateClosing: true},
	StateListening:  {StateGreeting: true, StateResponding: true, StateInTool: true, StateClosing: true},
	StateResponding: {StateGreeting: true, StateListening: true, StateInTool: true, StateClosing: true},
	StateInTool:     {StateGreeting: true, StateListening: true, StateResponding: true, StateClosing: true},
	StateClosing:    {},
}

// CallStateMachine is a mutex-guarded state holder for one call. Safe for
// concurrent reads from the monitor goroutine while the mediator loop owns
// writes.
type CallStateMachine struct {
	mu        sync.RWMutex
	state     CallState
	startTime time.Time
	logger    *zap.Logger
	listeners []func(from, to CallState)
}

func NewCallStateMachine(logger *zap.Logger) *CallStateMachine {
	return &CallStateMachine{
		state:     StateConnecting,
		startTime: time.Now(),
		logger:    logger,
	}
}

func (sm *CallStateMachine) State() CallState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

func (sm *CallStateMachine) Elapsed() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return time.Since(sm.startTime)
}

// Transition moves the call to a new state, validating against
// validCallTransitions. Listeners run outside the lock.
func (sm *CallStateMachine) Transition(to CallState) error {
	sm.mu.Lock()
	from := sm.state
	allowed, ok := validCallTransitions[from]
	if !ok || !allowed[to] {
		sm.mu.Unlock()
		err := fmt.Errorf("invalid call state transition: %s -> %s", from, to)
		sm.logger.Error("call state machine violation", zap.Error(err))
		return err
	}
	sm.state = to
	listeners := make([]func(from, to CallState), len(sm.listeners))
	copy(listeners, sm.listeners)
	sm.mu.Unlock()

	sm.logger.Debug("call state transition", zap.String("from", string(from)), zap.String("to", string(to)))
	for _, fn := range listeners {
		fn(from, to)
	}
	return nil
}

func (sm *CallStateMachine) OnTransition(fn func(from, to CallState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, fn)
}

func (sm *CallStateMachine) IsTerminal() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state == StateClosing
}
