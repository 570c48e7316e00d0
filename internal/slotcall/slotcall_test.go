package slotcall

import (
	"testing"
	"time"
)

func newPending() *Request {
	return New("Sugar Rush", "cheeselover", "user_123", time.Now().UTC())
}

func TestNewRequestIsPending(t *testing.T) {
	req := newPending()
	if req.Status != StatusPending {
		t.Errorf("new request status = %s, want pending", req.Status)
	}
	if req.X250Hit {
		t.Error("new request should not be flagged as 250x hit")
	}
	if req.BonusCall != nil {
		t.Error("new request should not carry a bonus call")
	}
}

func TestAcceptFromPending(t *testing.T) {
	req := newPending()
	if err := req.Accept(true); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if req.Status != StatusAccepted {
		t.Errorf("status = %s, want accepted", req.Status)
	}
	if !req.X250Hit {
		t.Error("x250 flag not recorded on accept")
	}
}

func TestRejectThenAcceptIsIllegal(t *testing.T) {
	req := newPending()
	if err := req.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if err := req.Accept(false); err != ErrIllegalTransition {
		t.Errorf("Accept after Reject: err = %v, want ErrIllegalTransition", err)
	}
	if req.Status != StatusRejected {
		t.Errorf("illegal accept mutated status to %s", req.Status)
	}
}

func TestMarkPlayedFastPath(t *testing.T) {
	// pending -> played directly, skipping accepted
	req := newPending()
	if err := req.MarkPlayed(); err != nil {
		t.Fatalf("MarkPlayed from pending failed: %v", err)
	}
	if req.Status != StatusPlayed {
		t.Errorf("status = %s, want played", req.Status)
	}
}

func TestMarkPlayedFromAccepted(t *testing.T) {
	req := newPending()
	req.Accept(false)
	if err := req.MarkPlayed(); err != nil {
		t.Fatalf("MarkPlayed from accepted failed: %v", err)
	}
}

func TestMarkPlayedFromTerminalStates(t *testing.T) {
	rejected := newPending()
	rejected.Reject()
	if err := rejected.MarkPlayed(); err != ErrIllegalTransition {
		t.Errorf("MarkPlayed from rejected: err = %v, want ErrIllegalTransition", err)
	}

	played := newPending()
	played.MarkPlayed()
	if err := played.MarkPlayed(); err != ErrIllegalTransition {
		t.Errorf("MarkPlayed from played: err = %v, want ErrIllegalTransition", err)
	}
}

func TestSetX250OnlyWhenPlayed(t *testing.T) {
	req := newPending()
	if err := req.SetX250(true); err != ErrIllegalTransition {
		t.Errorf("SetX250 on pending: err = %v, want ErrIllegalTransition", err)
	}
	if req.X250Hit {
		t.Error("rejected toggle still mutated the flag")
	}

	req.MarkPlayed()
	if err := req.SetX250(true); err != nil {
		t.Fatalf("SetX250 on played failed: %v", err)
	}
	if !req.X250Hit {
		t.Error("flag not set")
	}
	if err := req.SetX250(false); err != nil {
		t.Fatalf("SetX250 back to false failed: %v", err)
	}
	if req.X250Hit {
		t.Error("flag not cleared")
	}
}

func TestAttachBonusRequiresPlayedWithX250(t *testing.T) {
	now := time.Now().UTC()

	// accepted with x250 recorded is still not enough: the call must be played
	accepted := newPending()
	accepted.Accept(true)
	if err := accepted.AttachBonus("Sugar Rush", now); err != ErrIllegalTransition {
		t.Errorf("AttachBonus on accepted: err = %v, want ErrIllegalTransition", err)
	}

	// played without the flag
	playedNoHit := newPending()
	playedNoHit.MarkPlayed()
	if err := playedNoHit.AttachBonus("Sugar Rush", now); err != ErrIllegalTransition {
		t.Errorf("AttachBonus without x250: err = %v, want ErrIllegalTransition", err)
	}

	// played with the flag
	played := newPending()
	played.MarkPlayed()
	played.SetX250(true)
	if err := played.AttachBonus("Sugar Rush", now); err != nil {
		t.Fatalf("AttachBonus failed: %v", err)
	}
	if played.BonusCall == nil || played.BonusCall.Name != "Sugar Rush" {
		t.Errorf("bonus call = %+v, want Sugar Rush", played.BonusCall)
	}
}

func TestAttachBonusOnlyOnce(t *testing.T) {
	req := newPending()
	req.MarkPlayed()
	req.SetX250(true)

	if err := req.AttachBonus("Sugar Rush", time.Now().UTC()); err != nil {
		t.Fatalf("first AttachBonus failed: %v", err)
	}
	if err := req.AttachBonus("Gates of Olympus", time.Now().UTC()); err != ErrIllegalTransition {
		t.Errorf("second AttachBonus: err = %v, want ErrIllegalTransition", err)
	}
	if req.BonusCall.Name != "Sugar Rush" {
		t.Errorf("bonus call overwritten to %s", req.BonusCall.Name)
	}
}
