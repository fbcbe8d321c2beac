package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renelygems/storefront-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestProductsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock >= 0)",
		"CHECK (price >= 0)",
		"DROP TABLE IF EXISTS products",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSettingsMigrationSeedsDefaults(t *testing.T) {
	content := readMigration(t, "*_create_settings.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS settings",
		"('currency', '\"USD\"')",
		"('tax_rate', '0.13')",
		"('shipping_fee', '3.50')",
		"('free_shipping_threshold', '25.00')",
		"ON CONFLICT (key) DO NOTHING",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReviewsMigrationEnforcesUniqueTriple(t *testing.T) {
	content := readMigration(t, "*_create_reviews.sql")

	if !strings.Contains(content, "UNIQUE (user_id, product_id, order_id)") {
		t.Error("reviews migration missing the one-review-per-purchase constraint")
	}
	if !strings.Contains(content, "CHECK (rating BETWEEN 1 AND 5)") {
		t.Error("reviews migration missing the rating range check")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
