package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/workpad/internal/model"
)

// ListClients retrieves all clients, newest first.
func (s *RemoteStore) ListClients(ctx context.Context) ([]model.Client, error) {
	var rows []clientRow
	if err := s.client.Select(ctx, s.tables.Clients, newestFirst(), &rows); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clientsFromRows(rows), nil
}

// GetClientByID retrieves a single client by ID.
func (s *RemoteStore) GetClientByID(ctx context.Context, id string) (*model.Client, error) {
	var rows []clientRow
	if err := s.client.Select(ctx, s.tables.Clients, byID(id).Select("*"), &rows); err != nil {
		return nil, fmt.Errorf("getting client %s: %w", id, err)
	}
	clients := clientsFromRows(rows)
	if len(clients) == 0 {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return &clients[0], nil
}

// CreateClient inserts a new client and returns the stored record.
func (s *RemoteStore) CreateClient(ctx context.Context, client model.Client) (*model.Client, error) {
	if strings.TrimSpace(client.Name) == "" {
		return nil, fmt.Errorf("client name must not be empty")
	}

	var rows []clientRow
	if err := s.client.Insert(ctx, s.tables.Clients, newClientPayload(client), &rows); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	if created := clientsFromRows(rows); len(created) > 0 {
		return &created[0], nil
	}
	return &client, nil
}

// UpdateClient overwrites every editable field of an existing client.
func (s *RemoteStore) UpdateClient(ctx context.Context, client model.Client) error {
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("client name must not be empty")
	}
	err := s.client.Update(ctx, s.tables.Clients, byID(client.ID), newClientPayload(client), nil)
	if err != nil {
		return fmt.Errorf("updating client %s: %w", client.ID, err)
	}
	return nil
}

// DeleteClient removes a client. Its projects are left to the store's own
// foreign-key policy.
func (s *RemoteStore) DeleteClient(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.tables.Clients, byID(id)); err != nil {
		return fmt.Errorf("deleting client %s: %w", id, err)
	}
	return nil
}
