package validation

import (
	"testing"

	"github.com/ticket-ops/catalog-sync-go/internal/models"
)

func TestValidateCreateBlacklist(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     models.CreateBlacklistRequest
		wantErr bool
	}{
		{
			name: "valid ticketmaster id",
			req: models.CreateBlacklistRequest{
				Criteria:       models.CriteriaTicketmasterID,
				TicketmasterID: "tm-1",
				Market:         []string{"viagogo"},
			},
		},
		{
			name: "valid event code",
			req: models.CreateBlacklistRequest{
				Criteria:  models.CriteriaEventCode,
				EventCode: "E100",
				Market:    []string{"viagogo", "vivid"},
			},
		},
		{
			name: "valid listing id",
			req: models.CreateBlacklistRequest{
				Criteria:  models.CriteriaListingID,
				ListingID: "LOC1;ROW2",
				Market:    []string{"vivid"},
			},
		},
		{
			name: "valid listing section",
			req: models.CreateBlacklistRequest{
				Criteria:  models.CriteriaListingSection,
				Section:   "104",
				SectionID: "LOC1;104",
				Market:    []string{"vivid"},
			},
		},
		{
			name: "ticketmaster id missing",
			req: models.CreateBlacklistRequest{
				Criteria: models.CriteriaTicketmasterID,
				Market:   []string{"viagogo"},
			},
			wantErr: true,
		},
		{
			name: "event code missing",
			req: models.CreateBlacklistRequest{
				Criteria: models.CriteriaEventCode,
				Market:   []string{"viagogo"},
			},
			wantErr: true,
		},
		{
			name: "section without section id",
			req: models.CreateBlacklistRequest{
				Criteria: models.CriteriaListingSection,
				Section:  "104",
				Market:   []string{"vivid"},
			},
			wantErr: true,
		},
		{
			name: "no markets",
			req: models.CreateBlacklistRequest{
				Criteria:  models.CriteriaEventCode,
				EventCode: "E100",
			},
			wantErr: true,
		},
		{
			name:    "unknown criteria",
			req:     models.CreateBlacklistRequest{Criteria: "bogus", Market: []string{"viagogo"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCreateBlacklist(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCreateBlacklist() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigKey(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid", key: "acme_fee_pct", value: "0.07"},
		{name: "empty key", key: "", value: "0.07", wantErr: true},
		{name: "empty value", key: "acme_fee_pct", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateConfigKey(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfigKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
