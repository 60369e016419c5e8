package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/workpad/internal/model"
)

// The row types mirror the hosted schema column for column. They are the
// only place store column names appear; everything above this file works
// with model types.

// rowID accepts numeric or string primary keys and normalizes them to a
// string.
type rowID string

func (r *rowID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*r = rowID(n.String())
	return nil
}

// flexFloat accepts JSON numbers and numeric strings. Anything else,
// including null, decodes to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = 0
	switch t := v.(type) {
	case float64:
		*f = flexFloat(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			*f = flexFloat(n)
		}
	}
	return nil
}

// flexTime accepts the timestamp formats PostgREST emits. Unparseable
// values decode to the zero time.
type flexTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02",
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = flexTime(time.Time{})
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime(parsed)
			return nil
		}
	}
	*t = flexTime(time.Time{})
	return nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// === Clients ===

type clientRow struct {
	ID        rowID      `json:"id"`
	Nombre    *string    `json:"nombre"`
	Email     *string    `json:"email"`
	Telefono  *string    `json:"telefono"`
	Address   *string    `json:"address"`
	Lat       *flexFloat `json:"lat"`
	Lng       *flexFloat `json:"lng"`
	LogoURL   *string    `json:"logo_url"`
	CreatedAt flexTime   `json:"created_at"`
}

func (r clientRow) toModel() model.Client {
	c := model.Client{
		ID:        string(r.ID),
		Name:      str(r.Nombre),
		Email:     str(r.Email),
		Phone:     str(r.Telefono),
		Address:   str(r.Address),
		LogoURL:   str(r.LogoURL),
		CreatedAt: time.Time(r.CreatedAt),
	}
	// Rows written before locations were optional carry 0,0 for "unset".
	if r.Lat != nil && r.Lng != nil && (*r.Lat != 0 || *r.Lng != 0) {
		c.Location = model.NewGeoPoint(float64(*r.Lat), float64(*r.Lng))
	}
	return c
}

type clientPayload struct {
	Nombre   string   `json:"nombre"`
	Email    string   `json:"email"`
	Telefono string   `json:"telefono"`
	Address  string   `json:"address"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	LogoURL  *string  `json:"logo_url"`
}

func newClientPayload(c model.Client) clientPayload {
	p := clientPayload{
		Nombre:   c.Name,
		Email:    c.Email,
		Telefono: c.Phone,
		Address:  c.Address,
		LogoURL:  optString(c.LogoURL),
	}
	if c.Location.Valid {
		lat, lng := c.Location.Lat, c.Location.Lng
		p.Lat, p.Lng = &lat, &lng
	}
	return p
}

func clientsFromRows(rows []clientRow) []model.Client {
	clients := make([]model.Client, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		clients = append(clients, r.toModel())
	}
	return clients
}

// === Projects ===

type projectRow struct {
	ID          rowID     `json:"id"`
	ClientID    rowID     `json:"client_id"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       flexFloat `json:"price"`
	Deadline    *string   `json:"deadline"`
	Status      *string   `json:"status"`
	CreatedAt   flexTime  `json:"created_at"`
}

func (r projectRow) toModel() model.Project {
	return model.Project{
		ID:          string(r.ID),
		ClientID:    string(r.ClientID),
		Title:       str(r.Title),
		Description: str(r.Description),
		Price:       float64(r.Price),
		Deadline:    str(r.Deadline),
		Status:      model.NormalizeProjectStatus(str(r.Status)),
		CreatedAt:   time.Time(r.CreatedAt),
	}
}

// projectPayload is the update body. ClientID is deliberately absent:
// ownership never changes after creation.
type projectPayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Deadline    string  `json:"deadline"`
	Status      string  `json:"status"`
}

type projectInsert struct {
	projectPayload
	ClientID string `json:"client_id"`
}

func newProjectPayload(p model.Project) projectPayload {
	return projectPayload{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Deadline:    p.Deadline,
		Status:      model.NormalizeProjectStatus(p.Status),
	}
}

func projectsFromRows(rows []projectRow) []model.Project {
	projects := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		projects = append(projects, r.toModel())
	}
	return projects
}

// === Invoices ===

type invoiceRow struct {
	ID        rowID     `json:"id"`
	ProjectID rowID     `json:"project_id"`
	Number    *string   `json:"number"`
	Amount    flexFloat `json:"amount"`
	Date      *string   `json:"date"`
	Status    *string   `json:"status"`
	CreatedAt flexTime  `json:"created_at"`
}

func (r invoiceRow) toModel() model.Invoice {
	return model.Invoice{
		ID:        string(r.ID),
		ProjectID: string(r.ProjectID),
		Number:    str(r.Number),
		Amount:    float64(r.Amount),
		Date:      str(r.Date),
		Status:    model.NormalizeInvoiceStatus(str(r.Status)),
		CreatedAt: time.Time(r.CreatedAt),
	}
}

// invoicePayload is the update body: amount, date and status only.
type invoicePayload struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Status string  `json:"status"`
}

type invoiceInsert struct {
	invoicePayload
	Number    string `json:"number"`
	ProjectID string `json:"project_id"`
}

type statusPatch struct {
	Status string `json:"status"`
}

func newInvoicePayload(inv model.Invoice) invoicePayload {
	return invoicePayload{
		Amount: inv.Amount,
		Date:   inv.Date,
		Status: model.NormalizeInvoiceStatus(inv.Status),
	}
}

func invoicesFromRows(rows []invoiceRow) []model.Invoice {
	invoices := make([]model.Invoice, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		invoices = append(invoices, r.toModel())
	}
	return invoices
}
