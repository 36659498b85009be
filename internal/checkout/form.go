package checkout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Skotchmaster/mobileshop/internal/models"
)

// Form is the submitted shipping address plus the submission token rendered
// into the checkout page.
type Form struct {
	FullName        string `form:"full_name"`
	Line1           string `form:"line1"`
	Line2           string `form:"line2"`
	City            string `form:"city"`
	State           string `form:"state"`
	PostalCode      string `form:"postal_code"`
	Country         string `form:"country"`
	Phone           string `form:"phone"`
	SubmissionToken string `form:"submission_token"`
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	names := make([]string, 0, len(fe))
	for k := range fe {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

// Address validates the required fields and fills defaults.
func (f Form) Address(defaultCountry string) (models.Address, error) {
	a := models.Address{
		FullName:   strings.TrimSpace(f.FullName),
		Line1:      strings.TrimSpace(f.Line1),
		Line2:      strings.TrimSpace(f.Line2),
		City:       strings.TrimSpace(f.City),
		State:      strings.TrimSpace(f.State),
		PostalCode: strings.TrimSpace(f.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(f.Country)),
		Phone:      strings.TrimSpace(f.Phone),
	}
	if a.Country == "" {
		a.Country = defaultCountry
	}

	errs := FieldErrors{}
	required := []struct{ name, value string }{
		{"full_name", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
	}
	for _, r := range required {
		if r.value == "" {
			errs[r.name] = "This field is required."
		}
	}
	if len(errs) > 0 {
		return models.Address{}, errs
	}
	return a, nil
}
