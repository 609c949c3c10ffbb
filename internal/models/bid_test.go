package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

// A column default makes gorm skip the zero value on Create, so a bid
// stored with Approved=false would read back as approved.
func TestBidApprovedHasNoColumnDefault(t *testing.T) {
	s, err := schema.Parse(&Bid{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse Bid schema: %v", err)
	}
	f := s.LookUpField("Approved")
	if f == nil {
		t.Fatal("Approved field not found")
	}
	if f.HasDefaultValue {
		t.Fatalf("Approved has default %q, want none", f.DefaultValue)
	}
	if !f.NotNull {
		t.Fatal("Approved should be NOT NULL")
	}
}
