// Package cart accumulates completed robot configurations and prepares
// their submission as a contact request.
package cart

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smartconfig/configurator-engine/internal/models"
)

var (
	// ErrIndexOutOfRange is returned when a removal index no longer exists
	ErrIndexOutOfRange = errors.New("cart: index out of range")
	// ErrItemMismatch is returned when the removal guard does not match the
	// item at the index (a concurrent removal shifted positions)
	ErrItemMismatch = errors.New("cart: item at index does not match")
	// ErrEmpty blocks submission of an empty cart
	ErrEmpty = errors.New("cart: no configurations to submit")
)

// emailPattern mirrors the permissive client-side check: something, an @,
// something, a dot, something.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FieldError reports a contact-form validation failure on a single field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Add appends a completed configuration. No de-duplication: the same robot
// may appear multiple times as distinct configurations.
func Add(items []models.SummaryItem, item models.SummaryItem) []models.SummaryItem {
	return append(items, item)
}

// Remove deletes by position. robotDocumentID acts as a confirm guard: it
// must match the item currently at the index, so a removal that raced an
// earlier one fails instead of deleting the wrong configuration.
func Remove(items []models.SummaryItem, index int, robotDocumentID string) ([]models.SummaryItem, error) {
	if index < 0 || index >= len(items) {
		return items, ErrIndexOutOfRange
	}
	if robotDocumentID != "" && items[index].Robot.DocumentID != robotDocumentID {
		return items, ErrItemMismatch
	}

	result := make([]models.SummaryItem, 0, len(items)-1)
	result = append(result, items[:index]...)
	result = append(result, items[index+1:]...)
	return result, nil
}

// TotalPrice sums robot + controller + accessories×quantity over all items,
// treating missing prices as zero
func TotalPrice(items []models.SummaryItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price()
	}
	return total
}

// ValidateContact checks the required contact fields before any request is
// sent. Returns a FieldError naming the first offending field.
func ValidateContact(form models.ContactForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(form.Company) == "" {
		return &FieldError{Field: "company", Message: "company is required"}
	}
	if strings.TrimSpace(form.Email) == "" {
		return &FieldError{Field: "email", Message: "email is required"}
	}
	if !emailPattern.MatchString(form.Email) {
		return &FieldError{Field: "email", Message: "email is not valid"}
	}
	return nil
}

// BuildContactRequest validates the form and cart and assembles the
// creation payload with status "pending". The cart itself is left intact;
// clearing after a successful send is deliberately not done so the user can
// still print or resend.
func BuildContactRequest(form models.ContactForm, items []models.SummaryItem) (models.ContactRequest, error) {
	if len(items) == 0 {
		return models.ContactRequest{}, ErrEmpty
	}
	if err := ValidateContact(form); err != nil {
		return models.ContactRequest{}, err
	}

	return models.ContactRequest{
		Name:                form.Name,
		Company:             form.Company,
		Email:               form.Email,
		Phone:               form.Phone,
		Comment:             form.Comment,
		RobotConfigurations: items,
		TotalPrice:          TotalPrice(items),
		Status:              "pending",
	}, nil
}
