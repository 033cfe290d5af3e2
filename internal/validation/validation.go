// Package validation checks mutation requests before any store is touched.
package validation

import (
	"fmt"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

// Validator performs request-level validation for the orchestrators.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateCreateBlacklist ensures the criteria names exactly the identifier
// it needs and at least one market is requested.
func (v *Validator) ValidateCreateBlacklist(req *models.CreateBlacklistRequest) error {
	switch req.Criteria {
	case models.CriteriaTicketmasterID:
		if req.TicketmasterID == "" {
			return fmt.Errorf("ticketmaster id is required")
		}
	case models.CriteriaEventCode:
		if req.EventCode == "" {
			return fmt.Errorf("event code is required")
		}
	case models.CriteriaListingID:
		if req.ListingID == "" {
			return fmt.Errorf("listing id is required")
		}
	case models.CriteriaListingSection:
		if req.Section == "" || req.SectionID == "" {
			return fmt.Errorf("section and section id are required")
		}
	default:
		return fmt.Errorf("unknown blacklist criteria: %q", req.Criteria)
	}

	if len(req.Market) == 0 {
		return fmt.Errorf("at least one market is required")
	}
	return nil
}

// ValidateConfigKey rejects empty config keys and values.
func (v *Validator) ValidateConfigKey(key, value string) error {
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	if value == "" {
		return fmt.Errorf("config value is required")
	}
	return nil
}
