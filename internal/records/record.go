package records

import "time"

// Default field values applied at creation.
const (
	DefaultCustomerName = "Admin Entry"
	DefaultPhoneNumber  = "N/A"
)

// Record is a single listing: a public inventory entry when IsAdminEntry is
// true, otherwise a customer inquiry visible only to the admin.
type Record struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	PhoneNumber  string    `json:"phoneNumber"`
	CarName      string    `json:"carName"`
	CarModel     string    `json:"carModel"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Images       []string  `json:"images"`
	IsAdminEntry bool      `json:"isAdminEntry"`
	CreatedAt    time.Time `json:"createdAt"`
}

// InventorySubmission carries the admin's add-inventory form fields as received.
// Price and IsAdminEntry are coerced when the record is built.
type InventorySubmission struct {
	CustomerName string
	PhoneNumber  string
	CarName      string
	CarModel     string
	Price        string
	Description  string
	IsAdminEntry string
}

// InquirySubmission is the public contact form body.
type InquirySubmission struct {
	Name    string `json:"name" mapstructure:"name"`
	Phone   string `json:"phone" mapstructure:"phone"`
	Message string `json:"message" mapstructure:"message"`
}

// Filter selects records by partition. A nil IsAdminEntry matches every record.
type Filter struct {
	IsAdminEntry *bool
}

// PublicInventory selects records shown on the storefront.
func PublicInventory() Filter {
	v := true
	return Filter{IsAdminEntry: &v}
}

// Inquiries selects customer inquiries.
func Inquiries() Filter {
	v := false
	return Filter{IsAdminEntry: &v}
}

// Matches reports whether r belongs to the filtered partition.
func (f Filter) Matches(r Record) bool {
	return f.IsAdminEntry == nil || *f.IsAdminEntry == r.IsAdminEntry
}
