package senderkey_test

import (
	"errors"
	"strconv"
	"testing"

	"braid/internal/domain"
	"braid/internal/protocol/senderkey"
)

type groupMessage struct {
	counter uint32
	sig     []byte
	payload []byte
}

func newChainPair(t *testing.T) (sender, receiver domain.SenderKeyState) {
	t.Helper()
	sender, err := senderkey.NewSender("group-1", "alice", 0)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	receiver = senderkey.NewReceiver(sender.Distribution(), 0)
	return sender, receiver
}

func seal(t *testing.T, st *domain.SenderKeyState, plaintext string) groupMessage {
	t.Helper()
	counter, sig, payload, err := senderkey.Seal(st, []byte(plaintext))
	if err != nil {
		t.Fatalf("Seal(%q): %v", plaintext, err)
	}
	return groupMessage{counter: counter, sig: sig, payload: payload}
}

func open(t *testing.T, st *domain.SenderKeyState, m groupMessage) string {
	t.Helper()
	pt, err := senderkey.Open(st, m.counter, m.sig, m.payload)
	if err != nil {
		t.Fatalf("Open(counter=%d): %v", m.counter, err)
	}
	return string(pt)
}

func TestGroupOutOfOrderDelivery(t *testing.T) {
	sender, receiver := newChainPair(t)

	m1 := seal(t, &sender, "first")
	m2 := seal(t, &sender, "second")
	m3 := seal(t, &sender, "third")

	if got := open(t, &receiver, m3); got != "third" {
		t.Fatalf("got %q", got)
	}
	if got := open(t, &receiver, m1); got != "first" {
		t.Fatalf("got %q", got)
	}
	if got := open(t, &receiver, m2); got != "second" {
		t.Fatalf("got %q", got)
	}
}

func TestCountersArePreIncrement(t *testing.T) {
	sender, _ := newChainPair(t)
	for want := uint32(0); want < 3; want++ {
		m := seal(t, &sender, "x")
		if m.counter != want {
			t.Fatalf("counter %d, want %d", m.counter, want)
		}
	}
}

func TestSkippedWindowEviction(t *testing.T) {
	// Jumping straight to counter 60 derives keys 0..59; the cache keeps
	// exactly the newest fifty (10..59) and discards 0..9.
	sender, receiver := newChainPair(t)

	var msgs []groupMessage
	for i := 0; i <= 60; i++ {
		msgs = append(msgs, seal(t, &sender, "m"+strconv.Itoa(i)))
	}

	if got := open(t, &receiver, msgs[60]); got != "m60" {
		t.Fatalf("got %q", got)
	}
	if got := receiver.Skipped.Len(); got != 50 {
		t.Fatalf("cache holds %d keys, want 50", got)
	}
	for i := 0; i < 10; i++ {
		if receiver.Skipped.Contains(strconv.Itoa(i)) {
			t.Fatalf("counter %d still cached, want evicted", i)
		}
	}
	for i := 10; i < 60; i++ {
		if !receiver.Skipped.Contains(strconv.Itoa(i)) {
			t.Fatalf("counter %d not cached", i)
		}
	}

	// Inside the window: decrypts once, then the key is gone.
	if got := open(t, &receiver, msgs[15]); got != "m15" {
		t.Fatalf("got %q", got)
	}
	if _, err := senderkey.Open(&receiver, msgs[15].counter, msgs[15].sig, msgs[15].payload); !errors.Is(err, senderkey.ErrDiscarded) {
		t.Fatalf("replay: want ErrDiscarded, got %v", err)
	}

	// Outside the window entirely.
	if _, err := senderkey.Open(&receiver, msgs[3].counter, msgs[3].sig, msgs[3].payload); !errors.Is(err, senderkey.ErrMessageTooOld) {
		t.Fatalf("too old: want ErrMessageTooOld, got %v", err)
	}
}

func TestTamperedSignature(t *testing.T) {
	sender, receiver := newChainPair(t)
	m := seal(t, &sender, "signed")

	badSig := append([]byte(nil), m.sig...)
	badSig[0] ^= 0x01
	if _, err := senderkey.Open(&receiver, m.counter, badSig, m.payload); !errors.Is(err, senderkey.ErrInvalidGroupSignature) {
		t.Fatalf("want ErrInvalidGroupSignature, got %v", err)
	}

	// Payload tampering also breaks the signature before the AEAD runs.
	badPayload := append([]byte(nil), m.payload...)
	badPayload[len(badPayload)-1] ^= 0x01
	if _, err := senderkey.Open(&receiver, m.counter, m.sig, badPayload); !errors.Is(err, senderkey.ErrInvalidGroupSignature) {
		t.Fatalf("want ErrInvalidGroupSignature, got %v", err)
	}
}

func TestCounterBoundIntoAEAD(t *testing.T) {
	// The signature covers only the payload, so a shifted counter passes the
	// signature check and must be caught by the associated data.
	sender, receiver := newChainPair(t)
	seal(t, &sender, "zero")
	m := seal(t, &sender, "one")

	_, err := senderkey.Open(&receiver, m.counter+1, m.sig, m.payload)
	if !errors.Is(err, senderkey.ErrDecryptFailed) {
		t.Fatalf("want ErrDecryptFailed, got %v", err)
	}
}

func TestReceiverCannotSend(t *testing.T) {
	_, receiver := newChainPair(t)
	if _, _, _, err := senderkey.Seal(&receiver, []byte("nope")); !errors.Is(err, senderkey.ErrNotSender) {
		t.Fatalf("want ErrNotSender, got %v", err)
	}
}

func TestIndependentReceiversAgree(t *testing.T) {
	sender, err := senderkey.NewSender("group-2", "alice", 0)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	bob := senderkey.NewReceiver(sender.Distribution(), 0)
	carol := senderkey.NewReceiver(sender.Distribution(), 0)

	m := seal(t, &sender, "fan out")
	if got := open(t, &bob, m); got != "fan out" {
		t.Fatalf("bob got %q", got)
	}
	if got := open(t, &carol, m); got != "fan out" {
		t.Fatalf("carol got %q", got)
	}
}
