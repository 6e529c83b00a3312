// Package api implements the REST transport of the chat core. All calls
// carry the session bearer credential; failures are mapped onto the
// typed taxonomy in internal/apierr.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/apierr"
	"github.com/DeCamin0/decaminoserviciosapp-sub003/internal/models"
)

// Client is the HTTP implementation of Transport.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a REST client for the portal chat endpoints.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// doRequest performs one HTTP round trip. body, when non-nil, is JSON
// encoded; out, when non-nil, receives the decoded response.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &apierr.ParseError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &apierr.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &apierr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierr.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return apierr.FromStatus(op, resp.StatusCode, errResp.Error)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &apierr.ParseError{Op: op, Err: err}
		}
	}
	return nil
}

func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	var resp struct {
		Rooms []models.Room `json:"rooms"`
	}
	if err := c.doRequest(ctx, "listRooms", http.MethodGet, "/api/chat/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

func (c *Client) ListMessages(ctx context.Context, roomID int64) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/chat/rooms/%d/messages", roomID)
	if err := c.doRequest(ctx, "listMessages", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, roomID int64, clientID, body string) (models.Message, error) {
	req := struct {
		ClientID string `json:"client_id"`
		Body     string `json:"body"`
	}{ClientID: clientID, Body: body}

	var msg models.Message
	path := fmt.Sprintf("/api/chat/rooms/%d/messages", roomID)
	if err := c.doRequest(ctx, "sendMessage", http.MethodPost, path, req, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

func (c *Client) MarkRead(ctx context.Context, roomID int64, messageIDs []int64) error {
	req := struct {
		MessageIDs []int64 `json:"message_ids"`
	}{MessageIDs: messageIDs}
	path := fmt.Sprintf("/api/chat/rooms/%d/read", roomID)
	return c.doRequest(ctx, "markRead", http.MethodPost, path, req, nil)
}

func (c *Client) CreateDirectRoom(ctx context.Context, otherUserID int64) (models.Room, error) {
	req := struct {
		UserID int64 `json:"user_id"`
	}{UserID: otherUserID}

	var room models.Room
	if err := c.doRequest(ctx, "createDirectRoom", http.MethodPost, "/api/chat/rooms/direct", req, &room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (c *Client) CreateCenterRoom(ctx context.Context, centerKey int64) (models.Room, error) {
	req := struct {
		CenterKey int64 `json:"center_key"`
	}{CenterKey: centerKey}

	var room models.Room
	if err := c.doRequest(ctx, "createCenterRoom", http.MethodPost, "/api/chat/rooms/center", req, &room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (c *Client) CreateSupervisorBroadcastRoom(ctx context.Context) (models.Room, error) {
	var room models.Room
	if err := c.doRequest(ctx, "createSupervisorBroadcastRoom", http.MethodPost, "/api/chat/rooms/broadcast", struct{}{}, &room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, roomID int64) error {
	path := fmt.Sprintf("/api/chat/rooms/%d", roomID)
	return c.doRequest(ctx, "deleteRoom", http.MethodDelete, path, nil, nil)
}

func (c *Client) ListColleagues(ctx context.Context) ([]models.Colleague, error) {
	var resp struct {
		Colleagues []models.Colleague `json:"colleagues"`
	}
	if err := c.doRequest(ctx, "listColleagues", http.MethodGet, "/api/contacts/colleagues", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Colleagues, nil
}

func (c *Client) ListSupervisors(ctx context.Context) ([]models.Colleague, error) {
	var resp struct {
		Colleagues []models.Colleague `json:"colleagues"`
	}
	if err := c.doRequest(ctx, "listSupervisors", http.MethodGet, "/api/contacts/supervisors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Colleagues, nil
}

var _ Transport = (*Client)(nil)
