package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/nhle/workpad/internal/model"
)

// ListClients returns all clients, newest first.
func (s *Service) ListClients(ctx context.Context) []model.Client {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.fail("list clients", err)
		return []model.Client{}
	}
	return clients
}

// GetClient returns the client with id, or nil.
func (s *Service) GetClient(ctx context.Context, id string) *model.Client {
	c, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		s.fail("get client", err, "id", id)
		return nil
	}
	return c
}

// CreateClient uploads the logo, if any, then inserts the client. A failed
// upload does not stop the insert; the client is stored without a logo.
func (s *Service) CreateClient(ctx context.Context, in ClientInput) bool {
	c, err := clientFromInput(in)
	if err != nil {
		s.reject("create client", err)
		return false
	}

	if logo := strings.TrimSpace(in.Logo); logo != "" {
		if IsLocalRef(logo) {
			publicURL, err := s.uploadLogo(ctx, logo)
			if err != nil {
				s.fail("upload logo", err, "ref", logo)
			} else {
				c.LogoURL = publicURL
			}
		} else {
			c.LogoURL = logo
		}
	}

	created, err := s.store.CreateClient(ctx, c)
	if err != nil {
		s.fail("create client", err, "name", c.Name)
		return false
	}
	s.logger.Info("client created", "id", created.ID, "name", created.Name)
	return true
}

// UpdateClient overwrites every field of client id. A local logo is
// uploaded again; a remote URL is kept as is; an empty logo clears it.
// If the upload fails the update is not sent, so the stored logo survives.
func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) bool {
	c, err := clientFromInput(in)
	if err != nil {
		s.reject("update client", err, "id", id)
		return false
	}
	c.ID = id

	logo := strings.TrimSpace(in.Logo)
	switch {
	case logo == "":
	case IsLocalRef(logo):
		publicURL, err := s.uploadLogo(ctx, logo)
		if err != nil {
			s.fail("upload logo", err, "id", id, "ref", logo)
			return false
		}
		c.LogoURL = publicURL
	default:
		c.LogoURL = logo
	}

	if err := s.store.UpdateClient(ctx, c); err != nil {
		s.fail("update client", err, "id", id)
		return false
	}
	return true
}

// DeleteClient removes client id. Its projects go with it through the
// store's cascade rules; nothing is checked here.
func (s *Service) DeleteClient(ctx context.Context, id string) bool {
	if err := s.store.DeleteClient(ctx, id); err != nil {
		s.fail("delete client", err, "id", id)
		return false
	}
	return true
}

// SearchClients filters clients whose name or email contains term,
// ignoring case. An empty term returns the list unchanged.
func SearchClients(clients []model.Client, term string) []model.Client {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return clients
	}
	var matches []model.Client
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.Email), term) {
			matches = append(matches, c)
		}
	}
	return matches
}

// IsLocalRef reports whether ref names a local file rather than an
// already uploaded object.
func IsLocalRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if strings.HasPrefix(ref, "file:") {
		return true
	}
	lower := strings.ToLower(ref)
	return !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}

func (s *Service) uploadLogo(ctx context.Context, ref string) (string, error) {
	path := ref
	if strings.HasPrefix(ref, "file:") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("parsing logo reference: %w", err)
		}
		path = u.Path
	}

	f, err := s.openFile(path)
	if err != nil {
		return "", fmt.Errorf("opening logo: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	return s.store.UploadLogo(ctx, name, logoContentType(name), f)
}

func logoContentType(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	return "image/" + ext
}
