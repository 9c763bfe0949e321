package interfaces

import (
	"context"

	domaintypes "braid/internal/domain/types"
)

// Directory publishes and serves pre-key bundles. FetchBundle has a side
// effect: it dequeues at most one classical and one PQ one-time key from the
// device's queues and never serves the same id twice.
type Directory interface {
	Publish(ctx context.Context, keys domaintypes.PublishedKeys) error
	FetchBundle(ctx context.Context, device domaintypes.DeviceID) (domaintypes.PreKeyBundle, error)
}

// Transport is the store-and-forward mailbox between devices. Delivery is
// ordered per queue; the ratchet itself is oblivious to transport.
type Transport interface {
	SendMessage(ctx context.Context, msg domaintypes.WireMessage) error
	FetchMessages(
		ctx context.Context,
		device domaintypes.DeviceID,
		limit int,
	) ([]domaintypes.WireMessage, error)
	AckMessages(ctx context.Context, device domaintypes.DeviceID, count int) error
}

// RelayClient is how we talk to the central relay server: a directory plus a
// transport behind one connection.
type RelayClient interface {
	Directory
	Transport
}
