package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/workpad/internal/model"
)

// ValidationErrors maps a form field to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ClientInput is the client form as typed by the user.
type ClientInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Location model.GeoPoint

	// Logo is either a local file (path or file:// URI) to upload, a
	// remote URL to keep, or empty for no logo.
	Logo string
}

// ProjectInput is the project form. Price is raw text.
type ProjectInput struct {
	ClientID    string
	Title       string
	Description string
	Price       string
	Deadline    string
	Status      string
}

// InvoiceInput is the invoice form. Amount is raw text; an empty Number
// asks for a generated one and an empty Date means today.
type InvoiceInput struct {
	ProjectID string
	Number    string
	Amount    string
	Date      string
	Status    string
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{9,15}$`)
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

	// numberPrefix matches the leading number of a price the way a
	// lenient float parser does: "12.5 EUR" reads as 12.5.
	numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

	// extraSeparator spots digit groups left after the number prefix.
	extraSeparator = regexp.MustCompile(`^\.\d`)
)

// NormalizeEmail trims s and reduces display-name forms such as
// "Ana <ana@x.io>" to the bare address. Empty input is valid.
func NormalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if strings.ContainsAny(s, "<>") {
		addr, err := mail.ParseAddress(s)
		if err != nil {
			return "", fmt.Errorf("invalid email address")
		}
		s = addr.Address
	}
	if !emailPattern.MatchString(s) {
		return "", fmt.Errorf("invalid email address")
	}
	return s, nil
}

// NormalizePhone strips common separators and checks for 9 to 15 digits
// with an optional leading plus. Empty input is valid.
func NormalizePhone(s string) (string, error) {
	s = phoneNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if !phonePattern.MatchString(s) {
		return "", fmt.Errorf("must be 9 to 15 digits, optionally starting with +")
	}
	return s, nil
}

// ParsePrice reads a price leniently. Blank text is 0, a comma is read as
// the decimal point and trailing text after the number is ignored. Text
// with no leading number, or with a second separator inside the number
// such as "1,234.50", yields NaN.
func ParsePrice(text string) float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return 0
	}
	m := numberPrefix.FindString(text)
	if m == "" || extraSeparator.MatchString(text[len(m):]) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseAmount reads an invoice amount strictly. It is required and must
// be a finite number.
func ParseAmount(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("amount is required")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("amount must be a number")
	}
	return v, nil
}

// ValidateClient reports every problem with a client form.
func ValidateClient(in ClientInput) error {
	_, err := clientFromInput(in)
	return err
}

func clientFromInput(in ClientInput) (model.Client, error) {
	errs := ValidationErrors{}

	c := model.Client{
		Name:     strings.TrimSpace(in.Name),
		Address:  strings.TrimSpace(in.Address),
		Location: in.Location,
	}
	if c.Name == "" {
		errs["name"] = "name is required"
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		errs["email"] = err.Error()
	}
	c.Email = email

	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		errs["phone"] = err.Error()
	}
	c.Phone = phone

	if loc := in.Location; loc.Valid && !validCoordinates(loc.Lat, loc.Lng) {
		errs["location"] = "coordinates out of range"
	}

	return c, errs.orNil()
}

// validCoordinates reports whether lat and lng are numbers within range.
func validCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateProject reports every problem with a project form. requireClient
// is false for updates, which never change ownership.
func ValidateProject(in ProjectInput, requireClient bool) error {
	_, err := projectFromInput(in, requireClient)
	return err
}

func projectFromInput(in ProjectInput, requireClient bool) (model.Project, error) {
	errs := ValidationErrors{}

	p := model.Project{
		ClientID:    strings.TrimSpace(in.ClientID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       ParsePrice(in.Price),
		Deadline:    strings.TrimSpace(in.Deadline),
		Status:      model.ProjectStatusPending,
	}
	if p.Title == "" {
		errs["title"] = "title is required"
	}
	if requireClient && p.ClientID == "" {
		errs["client"] = "a client is required"
	}
	if math.IsNaN(p.Price) {
		errs["price"] = "price must be a number"
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		if !model.IsProjectStatus(status) {
			errs["status"] = fmt.Sprintf("unknown status %q", status)
		} else {
			p.Status = status
		}
	}

	return p, errs.orNil()
}

// ValidateInvoice reports every problem with an invoice form.
func ValidateInvoice(in InvoiceInput, requireProject bool) error {
	_, err := invoiceFromInput(in, requireProject)
	return err
}

func invoiceFromInput(in InvoiceInput, requireProject bool) (model.Invoice, error) {
	errs := ValidationErrors{}

	inv := model.Invoice{
		ProjectID: strings.TrimSpace(in.ProjectID),
		Number:    strings.TrimSpace(in.Number),
		Date:      strings.TrimSpace(in.Date),
		Status:    model.InvoiceStatusPending,
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		errs["amount"] = err.Error()
	}
	inv.Amount = amount

	if requireProject && inv.ProjectID == "" {
		errs["project"] = "a project is required"
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		if !model.IsInvoiceStatus(status) {
			errs["status"] = fmt.Sprintf("unknown status %q", status)
		} else {
			inv.Status = status
		}
	}

	return inv, errs.orNil()
}
