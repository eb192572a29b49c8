package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestMigrationsDefineCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var all strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		all.Write(b)
	}

	sql := all.String()
	for _, table := range []string{
		"products", "product_units", "warranties", "orders",
		"order_line_items", "quotes", "users", "outbox_events",
		"outbox_dlq", "notifications", "activity_logs",
	} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Fatalf("migrations missing CREATE TABLE %s", table)
		}
	}

	if !strings.Contains(sql, "ux_product_units_serial_number") {
		t.Fatal("serial uniqueness index missing")
	}
	if !strings.Contains(sql, "ux_outbox_events_event_aggregate") {
		t.Fatal("outbox dedupe index missing")
	}
}
