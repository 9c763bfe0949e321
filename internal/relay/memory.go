package relay

import (
	"context"
	"sync"

	"braid/internal/directory"
	"braid/internal/domain"
)

// Memory is an in-process relay: the pre-key directory plus per-device
// mailboxes with fetch-then-ack semantics. It backs the relay daemon and the
// end-to-end tests; delivery order within one mailbox is insertion order.
type Memory struct {
	dir *directory.Directory

	mu        sync.Mutex
	mailboxes map[domain.DeviceID][]domain.WireMessage
}

// NewMemory returns an empty in-process relay around dir.
func NewMemory(dir *directory.Directory) *Memory {
	return &Memory{
		dir:       dir,
		mailboxes: make(map[domain.DeviceID][]domain.WireMessage),
	}
}

// Publish forwards to the directory.
func (m *Memory) Publish(ctx context.Context, keys domain.PublishedKeys) error {
	return m.dir.Publish(ctx, keys)
}

// FetchBundle forwards to the directory.
func (m *Memory) FetchBundle(
	ctx context.Context,
	device domain.DeviceID,
) (domain.PreKeyBundle, error) {
	return m.dir.FetchBundle(ctx, device)
}

// SendMessage appends msg to the recipient's mailbox.
func (m *Memory) SendMessage(_ context.Context, msg domain.WireMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	to := msg.Recipient()
	m.mailboxes[to] = append(m.mailboxes[to], msg)
	return nil
}

// FetchMessages returns up to limit pending messages without removing them;
// callers ack what they processed.
func (m *Memory) FetchMessages(
	_ context.Context,
	device domain.DeviceID,
	limit int,
) ([]domain.WireMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.mailboxes[device]
	if limit <= 0 || limit > len(queue) {
		limit = len(queue)
	}
	out := make([]domain.WireMessage, limit)
	copy(out, queue[:limit])
	return out, nil
}

// AckMessages drops the first count messages from the device's mailbox.
func (m *Memory) AckMessages(_ context.Context, device domain.DeviceID, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.mailboxes[device]
	if count > len(queue) {
		count = len(queue)
	}
	m.mailboxes[device] = append([]domain.WireMessage(nil), queue[count:]...)
	return nil
}

// Compile-time assertion that Memory implements domain.RelayClient.
var _ domain.RelayClient = (*Memory)(nil)
