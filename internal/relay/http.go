package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"braid/internal/directory"
	"braid/internal/domain"
)

// HTTP talks to a remote relay daemon.
type HTTP struct {
	Base   string
	Client *http.Client
}

// NewHTTP returns a client for the relay at base.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: base, Client: client}
}

// Publish uploads the device's key set.
func (c *HTTP) Publish(ctx context.Context, keys domain.PublishedKeys) error {
	return c.post(ctx, "/register", keys, nil)
}

// FetchBundle retrieves (and partially consumes) a device's bundle.
func (c *HTTP) FetchBundle(
	ctx context.Context,
	device domain.DeviceID,
) (domain.PreKeyBundle, error) {
	var out domain.PreKeyBundle
	if err := c.getJSON(ctx, "/bundle/"+url.PathEscape(device.String()), &out); err != nil {
		return domain.PreKeyBundle{}, err
	}
	return out, nil
}

// SendMessage posts a wire message to the recipient's mailbox.
func (c *HTTP) SendMessage(ctx context.Context, msg domain.WireMessage) error {
	return c.post(ctx, "/msg/"+url.PathEscape(msg.Recipient().String()), msg, nil)
}

// FetchMessages returns up to limit pending messages for device.
func (c *HTTP) FetchMessages(
	ctx context.Context,
	device domain.DeviceID,
	limit int,
) ([]domain.WireMessage, error) {
	p := "/msg/" + url.PathEscape(device.String())
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.WireMessage
	if err := c.getJSON(ctx, p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AckMessages acknowledges the first count pending messages for device.
func (c *HTTP) AckMessages(ctx context.Context, device domain.DeviceID, count int) error {
	body := struct {
		Count int `json:"count"`
	}{Count: count}
	return c.post(ctx, "/msg/"+url.PathEscape(device.String())+"/ack", body, nil)
}

func (c *HTTP) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s%s: %s", c.Base, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("relay get %s%s: %w", c.Base, path, directory.ErrUnknownDevice)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s%s: %s", c.Base, path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Compile-time assertion that HTTP implements domain.RelayClient.
var _ domain.RelayClient = (*HTTP)(nil)
