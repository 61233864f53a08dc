package service

import (
	"sync"
	"time"
)

// TurnArbiter is C6: the arbitration between caller audio, assistant
// audio, and acoustic echo. It owns no transport — callers invoke
// CancelAssistant/ClearCarrierBuffer through the hooks supplied at
// construction, so this type stays transport-agnostic and testable in
// isolation.
type TurnArbiter struct {
	mu             sync.Mutex
	responseActive bool
	echoCooldown   bool
	cooldownTimer  *time.Timer
	cooldownPeriod time.Duration

	cancelAssistant     func()
	clearCarrierBuffer  func()
	emitAudioCompleteMark func()
}

// Hooks are the side effects the arbiter triggers; the mediator supplies
// these bound to its live LLM/carrier sessions.
type Hooks struct {
	CancelAssistant       func()
	ClearCarrierBuffer    func()
	EmitAudioCompleteMark func()
}

// DefaultEchoCooldown is the cooldown spec value; config may override it.
const DefaultEchoCooldown = 400 * time.Millisecond

func NewTurnArbiter(cooldown time.Duration, hooks Hooks) *TurnArbiter {
	if cooldown <= 0 {
		cooldown = DefaultEchoCooldown
	}
	return &TurnArbiter{
		cooldownPeriod:        cooldown,
		cancelAssistant:       hooks.CancelAssistant,
		clearCarrierBuffer:    hooks.ClearCarrierBuffer,
		emitAudioCompleteMark: hooks.EmitAudioCompleteMark,
	}
}

// OnResponseCreated — rule 1.
func (a *TurnArbiter) OnResponseCreated() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responseActive = true
}

// OnResponseDone — rule 1.
func (a *TurnArbiter) OnResponseDone() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responseActive = false
}

// OnSpeechStarted — rule 2: barge-in. Only cancels when a response is
// actually in flight; a speech_started event while idle is ignored.
func (a *TurnArbiter) OnSpeechStarted() {
	a.mu.Lock()
	active := a.responseActive
	a.mu.Unlock()

	if !active {
		return
	}
	if a.cancelAssistant != nil {
		a.cancelAssistant()
	}
	if a.clearCarrierBuffer != nil {
		a.clearCarrierBuffer()
	}
}

// OnAudioDelta — rule 3: every outbound frame cancels a pending cooldown.
func (a *TurnArbiter) OnAudioDelta() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.echoCooldown = false
	a.stopCooldownTimerLocked()
}

// OnAudioDone — rule 4: mark playback end, but do not start the cooldown;
// that waits for the carrier's own acknowledgement.
func (a *TurnArbiter) OnAudioDone() {
	if a.emitAudioCompleteMark != nil {
		a.emitAudioCompleteMark()
	}
}

// OnCarrierMarkAudioComplete — rule 5: arm the cooldown. Arming a new
// timer replaces any existing one.
func (a *TurnArbiter) OnCarrierMarkAudioComplete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopCooldownTimerLocked()
	a.echoCooldown = true
	a.cooldownTimer = time.AfterFunc(a.cooldownPeriod, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.echoCooldown = false // rule 6
	})
}

func (a *TurnArbiter) stopCooldownTimerLocked() {
	if a.cooldownTimer != nil {
		a.cooldownTimer.Stop()
		a.cooldownTimer = nil
	}
}

// GateCallerAudio — rule 7: gated solely by echo cooldown, never by
// barge-in state, so the LLM's server-side VAD keeps receiving a
// continuous caller signal.
func (a *TurnArbiter) GateCallerAudio() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.echoCooldown
}

// ResponseActive reports whether an assistant response is currently in
// flight, for telemetry and tests.
func (a *TurnArbiter) ResponseActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.responseActive
}
