package group_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"braid/internal/directory"
	"braid/internal/domain"
	"braid/internal/protocol/senderkey"
	"braid/internal/relay"
	groupsvc "braid/internal/services/group"
	"braid/internal/store"
)

func TestDistributionCodec(t *testing.T) {
	st, err := senderkey.NewSender("team", "alice", 0)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	dist := st.Distribution()

	payload, err := groupsvc.EncodeDistribution(dist)
	if err != nil {
		t.Fatalf("EncodeDistribution: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("skdist:")) {
		t.Fatalf("payload missing tag: %q", payload[:16])
	}

	got, ok := groupsvc.DecodeDistribution(payload)
	if !ok {
		t.Fatalf("DecodeDistribution rejected own encoding")
	}
	if diff := cmp.Diff(dist, got); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDistribution_PassesOrdinaryPlaintext(t *testing.T) {
	for _, pt := range [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("skdist:{not json"),
		[]byte("skdist"),
	} {
		if _, ok := groupsvc.DecodeDistribution(pt); ok {
			t.Fatalf("plaintext %q decoded as distribution", pt)
		}
	}
}

func TestInstallAndOpen(t *testing.T) {
	rc := relay.NewMemory(directory.New())
	senderStore := store.NewSenderKeyFileStore(t.TempDir())
	receiverStore := store.NewSenderKeyFileStore(t.TempDir())

	sender := groupsvc.New(senderStore, nil, rc, nil, 0)
	receiver := groupsvc.New(receiverStore, nil, rc, nil, 0)

	// Mint a chain by hand (CreateGroup would also distribute, which needs a
	// pairwise channel this test does not wire).
	st, err := senderkey.NewSender("team", "alice", 0)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	if err := senderStore.SaveSenderKey(st); err != nil {
		t.Fatalf("SaveSenderKey: %v", err)
	}
	if err := senderStore.SaveGroupMembers("team", []domain.DeviceID{"alice", "bob"}); err != nil {
		t.Fatalf("SaveGroupMembers: %v", err)
	}
	if err := receiver.InstallSenderKey(st.Distribution()); err != nil {
		t.Fatalf("InstallSenderKey: %v", err)
	}

	if err := sender.SendGroupMessage(
		context.Background(), "", "alice", "team", []byte("hi group"),
	); err != nil {
		t.Fatalf("SendGroupMessage: %v", err)
	}

	msgs, err := rc.FetchMessages(context.Background(), "bob", 0)
	if err != nil {
		t.Fatalf("FetchMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Group == nil {
		t.Fatalf("mailbox: %+v", msgs)
	}

	dm, err := receiver.OpenGroupMessage(*msgs[0].Group)
	if err != nil {
		t.Fatalf("OpenGroupMessage: %v", err)
	}
	if string(dm.Plaintext) != "hi group" || dm.GroupID != "team" {
		t.Fatalf("got %+v", dm)
	}

	// Counter advanced durably on both sides.
	senderState, _, _ := senderStore.LoadSenderKey("team", "alice")
	receiverState, _, _ := receiverStore.LoadSenderKey("team", "alice")
	if senderState.Counter != 1 || receiverState.Counter != 1 {
		t.Fatalf("counters %d/%d, want 1/1", senderState.Counter, receiverState.Counter)
	}
}

func TestOpenWithoutState(t *testing.T) {
	svc := groupsvc.New(store.NewSenderKeyFileStore(t.TempDir()), nil, nil, nil, 0)
	_, err := svc.OpenGroupMessage(domain.GroupEnvelope{GroupID: "ghost", From: "alice"})
	if !errors.Is(err, groupsvc.ErrUnknownSenderKeyState) {
		t.Fatalf("want ErrUnknownSenderKeyState, got %v", err)
	}
}
