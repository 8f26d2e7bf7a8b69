package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"landingkit/internal/models"
)

func TestAgencyThemeUpsert(t *testing.T) {
	db := testDB(t)
	s := NewAgencyThemeStore(db)
	ctx := context.Background()

	agency := uuid.New()
	t.Cleanup(func() { db.Exec("DELETE FROM agency_themes WHERE agency_id = $1", agency) })

	if got, err := s.Get(ctx, agency); got != nil || err != nil {
		t.Fatalf("Get before upsert: %v, %v", got, err)
	}

	if _, err := s.Upsert(ctx, &models.AgencyTheme{AgencyID: agency, BrandName: "Acme", AccentColor: "#ff0000"}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	updated, err := s.Upsert(ctx, &models.AgencyTheme{AgencyID: agency, BrandName: "Acme Co", AccentColor: "#00ff00"})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if updated.BrandName != "Acme Co" || updated.AccentColor != "#00ff00" {
		t.Errorf("upsert did not replace: %+v", updated)
	}

	got, err := s.Get(ctx, agency)
	if err != nil || got == nil {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.BrandName != "Acme Co" {
		t.Errorf("brand: got %q", got.BrandName)
	}
}
