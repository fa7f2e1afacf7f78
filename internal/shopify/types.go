package shopify

import "strings"

// Customer is the platform-owned customer record. Tags arrive as a single
// comma-delimited string; the engine treats them as a set.
type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Tags      string `json:"tags"`
	Note      string `json:"note"`
}

func (c Customer) TagList() []string {
	return ParseTags(c.Tags)
}

// OrderCustomer is the customer reference embedded in an order payload.
// Orders may carry no customer at all.
type OrderCustomer struct {
	ID int64 `json:"id"`
}

type Order struct {
	ID              int64          `json:"id"`
	Customer        *OrderCustomer `json:"customer"`
	FinancialStatus string         `json:"financial_status"`
	TotalPrice      string         `json:"total_price"`
}

// CustomerID returns the owning customer id, if the order has one.
func (o Order) CustomerID() (int64, bool) {
	if o.Customer == nil || o.Customer.ID == 0 {
		return 0, false
	}
	return o.Customer.ID, true
}

// ParseTags splits the platform's delimited tag string into set members.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}

// JoinTags serializes tags back to the platform's delimited form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// HasTag reports set membership by exact match.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
