package service

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestArbiter(cooldown time.Duration) (*TurnArbiter, *int32, *int32, *int32) {
	var cancels, clears, marks int32
	a := NewTurnArbiter(cooldown, Hooks{
		CancelAssistant:       func() { atomic.AddInt32(&cancels, 1) },
		ClearCarrierBuffer:    func() { atomic.AddInt32(&clears, 1) },
		EmitAudioCompleteMark: func() { atomic.AddInt32(&marks, 1) },
	})
	return a, &cancels, &clears, &marks
}

func TestTurnArbiter_BargeInOnlyWhileResponseActive(t *testing.T) {
	a, cancels, clears, _ := newTestArbiter(10 * time.Millisecond)

	a.OnSpeechStarted()
	if atomic.LoadInt32(cancels) != 0 {
		t.Fatalf("expected no cancel while idle, got %d", *cancels)
	}

	a.OnResponseCreated()
	a.OnSpeechStarted()
	if atomic.LoadInt32(cancels) != 1 || atomic.LoadInt32(clears) != 1 {
		t.Fatalf("expected one cancel and one clear during an active response, got cancels=%d clears=%d", *cancels, *clears)
	}
}

func TestTurnArbiter_AudioDeltaCancelsPendingCooldown(t *testing.T) {
	a, _, _, _ := newTestArbiter(20 * time.Millisecond)

	a.OnCarrierMarkAudioComplete()
	if !a.GateCallerAudio() {
		t.Fatal("expected gate closed immediately after mark")
	}

	a.OnAudioDelta()
	if a.GateCallerAudio() {
		t.Fatal("expected a fresh audio delta to cancel the cooldown immediately")
	}
}

func TestTurnArbiter_CooldownArmsOnCarrierMarkNotOnResponseDone(t *testing.T) {
	a, _, _, marks := newTestArbiter(20 * time.Millisecond)

	a.OnResponseCreated()
	a.OnAudioDone()
	a.OnResponseDone()
	if atomic.LoadInt32(marks) != 1 {
		t.Fatalf("expected one audio-complete mark emitted, got %d", *marks)
	}
	if a.GateCallerAudio() {
		t.Fatal("response.done/audio.done alone must not arm the cooldown")
	}

	a.OnCarrierMarkAudioComplete()
	if !a.GateCallerAudio() {
		t.Fatal("expected cooldown armed once the carrier acknowledges playback")
	}
}

func TestTurnArbiter_CooldownExpires(t *testing.T) {
	a, _, _, _ := newTestArbiter(15 * time.Millisecond)

	a.OnCarrierMarkAudioComplete()
	if !a.GateCallerAudio() {
		t.Fatal("expected gate closed right after mark")
	}

	time.Sleep(40 * time.Millisecond)
	if a.GateCallerAudio() {
		t.Fatal("expected cooldown to have expired and the gate to reopen")
	}
}

func TestTurnArbiter_RearmingReplacesExistingTimer(t *testing.T) {
	a, _, _, _ := newTestArbiter(30 * time.Millisecond)

	a.OnCarrierMarkAudioComplete()
	time.Sleep(15 * time.Millisecond)
	a.OnCarrierMarkAudioComplete() // should restart the 30ms window

	time.Sleep(20 * time.Millisecond)
	if !a.GateCallerAudio() {
		t.Fatal("expected the second mark to have re-armed the cooldown window")
	}

	time.Sleep(20 * time.Millisecond)
	if a.GateCallerAudio() {
		t.Fatal("expected the re-armed cooldown to eventually expire")
	}
}
