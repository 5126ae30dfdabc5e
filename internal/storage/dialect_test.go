package storage

import "testing"

func TestDialectRebind(t *testing.T) {
	q := "SELECT id FROM t WHERE a = ? AND b IN (?, ?)"
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	if got := MySQL.rebind(q); got != q {
		t.Fatalf("mysql rebind changed query: %s", got)
	}
	want := "SELECT id FROM t WHERE a = $1 AND b IN ($2, $3)"
	if got := Postgres.rebind(q); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}

func TestDialectInsertIgnore(t *testing.T) {
	tests := []struct {
		d    Dialect
		want string
	}{
		{SQLite, "INSERT INTO n (a, b) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{Postgres, "INSERT INTO n (a, b) VALUES (?, ?) ON CONFLICT DO NOTHING"},
		{MySQL, "INSERT IGNORE INTO n (a, b) VALUES (?, ?)"},
	}
	for _, tt := range tests {
		if got := tt.d.insertIgnore("n", "a, b", placeholders(2)); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseDialect(t *testing.T) {
	for _, s := range []string{"sqlite", "Postgres", "MYSQL"} {
		if _, err := ParseDialect(s); err != nil {
			t.Errorf("ParseDialect(%q) error = %v", s, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Fatal("expected error for oracle")
	}
	if Postgres.DriverName() != "pgx" || SQLite.DriverName() != "sqlite" || MySQL.DriverName() != "mysql" {
		t.Fatal("unexpected driver names")
	}
}
