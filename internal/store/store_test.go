package store_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"braid/internal/crypto"
	"braid/internal/crypto/kem"
	"braid/internal/domain"
	"braid/internal/store"
)

const testPassphrase = "Correct-Horse-42!"

func makeIdentity(t *testing.T) domain.DeviceIdentity {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	return domain.DeviceIdentity{
		DeviceID:      "alice",
		Param:         domain.MLKem512,
		SigningPub:    edPub,
		SigningPriv:   edPriv,
		AgreementPub:  xPub,
		AgreementPriv: xPriv,
		CreatedUTC:    time.Now().Unix(),
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	s := store.NewIdentityFileStore(t.TempDir())
	id := makeIdentity(t)

	if err := s.SaveIdentity(testPassphrase, id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	got, err := s.LoadIdentity(testPassphrase)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if diff := cmp.Diff(id, got); diff != "" {
		t.Fatalf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentityWrongPassphrase(t *testing.T) {
	s := store.NewIdentityFileStore(t.TempDir())
	if err := s.SaveIdentity(testPassphrase, makeIdentity(t)); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if _, err := s.LoadIdentity("Wrong-Horse-42!"); err == nil {
		t.Fatalf("wrong passphrase accepted")
	}
}

func TestOneTimePreKeyConsumedOnce(t *testing.T) {
	s := store.NewPreKeyFileStore(t.TempDir())

	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	id := domain.OneTimePreKeyID(crypto.B64(pub.Slice()))
	if err := s.SaveOneTimePreKeys([]domain.OneTimePreKeyPair{{ID: id, Priv: priv, Pub: pub}}); err != nil {
		t.Fatalf("SaveOneTimePreKeys: %v", err)
	}

	gotPriv, _, ok, err := s.ConsumeOneTimePreKey(id)
	if err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}
	if gotPriv != priv {
		t.Fatalf("consumed wrong private key")
	}
	if _, _, ok, _ := s.ConsumeOneTimePreKey(id); ok {
		t.Fatalf("one-time key consumed twice")
	}
}

func TestPqPreKeysRoundTrip(t *testing.T) {
	s := store.NewPreKeyFileStore(t.TempDir())

	pair, err := kem.GenerateKeyPair(domain.MLKem512)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	sig := []byte("sig-bytes")
	if err := s.SavePqPreKey(pair, sig); err != nil {
		t.Fatalf("SavePqPreKey: %v", err)
	}
	got, gotSig, ok, err := s.LoadPqPreKey()
	if err != nil || !ok {
		t.Fatalf("LoadPqPreKey: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(pair, got); diff != "" {
		t.Fatalf("pq pair mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sig, gotSig); diff != "" {
		t.Fatalf("pq sig mismatch (-want +got):\n%s", diff)
	}

	// The identity pq pre-key is reused: loading twice returns it both times.
	if _, _, ok, _ := s.LoadPqPreKey(); !ok {
		t.Fatalf("identity pq pre-key vanished after load")
	}

	// One-time pq keys are consumed.
	ot, err := kem.GenerateKeyPair(domain.MLKem512)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if err := s.SavePqOneTimePreKeys([]domain.PqKeyPair{ot}); err != nil {
		t.Fatalf("SavePqOneTimePreKeys: %v", err)
	}
	if _, ok, _ := s.ConsumePqOneTimePreKey(ot.KeyID); !ok {
		t.Fatalf("pq one-time key not found")
	}
	if _, ok, _ := s.ConsumePqOneTimePreKey(ot.KeyID); ok {
		t.Fatalf("pq one-time key consumed twice")
	}
}

func TestConversationRoundTripKeepsCache(t *testing.T) {
	s := store.NewRatchetFileStore(t.TempDir())

	st := domain.RatchetState{
		RootKey:      []byte{1, 2, 3},
		SendChainKey: []byte{4, 5, 6},
		SendIndex:    7,
		Skipped:      domain.NewSkippedKeyCache(5),
	}
	st.Skipped.Put("k1", []byte{0xAA})
	st.Skipped.Put("k2", []byte{0xBB})

	conv := domain.Conversation{Peer: "bob", State: st}
	if err := s.SaveConversation("bob", conv); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	got, ok, err := s.LoadConversation("bob")
	if err != nil || !ok {
		t.Fatalf("LoadConversation: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"k1", "k2"}, got.State.Skipped.IDs()); diff != "" {
		t.Fatalf("cache order lost (-want +got):\n%s", diff)
	}
	if got.State.SendIndex != 7 {
		t.Fatalf("SendIndex = %d, want 7", got.State.SendIndex)
	}
}

func TestSenderKeyStore(t *testing.T) {
	s := store.NewSenderKeyFileStore(t.TempDir())

	st := domain.SenderKeyState{
		GroupID:  "g1",
		Sender:   "alice",
		ChainKey: []byte{1, 2, 3},
		Counter:  4,
		Skipped:  domain.NewSkippedKeyCache(50),
	}
	if err := s.SaveSenderKey(st); err != nil {
		t.Fatalf("SaveSenderKey: %v", err)
	}
	got, ok, err := s.LoadSenderKey("g1", "alice")
	if err != nil || !ok {
		t.Fatalf("LoadSenderKey: ok=%v err=%v", ok, err)
	}
	if got.Counter != 4 {
		t.Fatalf("Counter = %d, want 4", got.Counter)
	}
	if _, ok, _ := s.LoadSenderKey("g1", "bob"); ok {
		t.Fatalf("found a sender key never saved")
	}

	members := []domain.DeviceID{"alice", "bob"}
	if err := s.SaveGroupMembers("g1", members); err != nil {
		t.Fatalf("SaveGroupMembers: %v", err)
	}
	gotMembers, err := s.ListGroupMembers("g1")
	if err != nil {
		t.Fatalf("ListGroupMembers: %v", err)
	}
	if diff := cmp.Diff(members, gotMembers); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileStore(t *testing.T) {
	s := store.NewProfileFileStore(t.TempDir())

	p := domain.DeviceProfile{ServerURL: "http://relay", DeviceID: "alice", Param: domain.MLKem512}
	if err := s.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, ok, err := s.LoadProfile("http://relay", "alice")
	if err != nil || !ok {
		t.Fatalf("LoadProfile: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}
