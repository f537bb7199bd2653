package models

import (
	"regexp"
	"strings"
	"time"

	"artastic/internal/apperr"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Client struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `json:"name" gorm:"not null;index"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) Validate() error {
	var errs apperr.ValidationErrors
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, apperr.Invalid("name", "El nombre es obligatorio"))
	}
	if email := strings.TrimSpace(c.Email); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, apperr.Invalid("email", "Email inválido"))
	}
	return errs.Err()
}

// Matches reports whether the client name, email or phone contains query, case-insensitively.
func (c *Client) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.Email), q) ||
		strings.Contains(c.Phone, q)
}

type ClientPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Validate checks only the fields the patch sets.
func (cp ClientPatch) Validate() error {
	next := cp.Apply(Client{Name: "-"})
	return next.Validate()
}

func (cp ClientPatch) Apply(c Client) Client {
	if cp.Name != nil {
		c.Name = *cp.Name
	}
	if cp.Email != nil {
		c.Email = *cp.Email
	}
	if cp.Phone != nil {
		c.Phone = *cp.Phone
	}
	if cp.Address != nil {
		c.Address = *cp.Address
	}
	return c
}

func (cp ClientPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if cp.Name != nil {
		cols["name"] = *cp.Name
	}
	if cp.Email != nil {
		cols["email"] = *cp.Email
	}
	if cp.Phone != nil {
		cols["phone"] = *cp.Phone
	}
	if cp.Address != nil {
		cols["address"] = *cp.Address
	}
	return cols
}
