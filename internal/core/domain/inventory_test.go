package domain

import "testing"

func TestTransactionKindApply(t *testing.T) {
	cases := []struct {
		name     string
		kind     TransactionKind
		previous int
		quantity int
		want     int
	}{
		{"stock_in adds", KindStockIn, 10, 5, 15},
		{"stock_in from zero", KindStockIn, 0, 7, 7},
		{"stock_out subtracts", KindStockOut, 10, 4, 6},
		{"stock_out clamps at zero", KindStockOut, 3, 10, 0},
		{"stock_out exact drain", KindStockOut, 5, 5, 0},
		{"adjustment is absolute", KindAdjustment, 100, 5, 5},
		{"adjustment can raise", KindAdjustment, 2, 50, 50},
		{"count is absolute", KindCount, 77, 12, 12},
		{"count to zero", KindCount, 9, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.kind.Apply(tc.previous, tc.quantity)
			if got != tc.want {
				t.Errorf("Apply(%d, %d) = %d, want %d", tc.previous, tc.quantity, got, tc.want)
			}
		})
	}
}

func TestTransactionKindValid(t *testing.T) {
	for _, kind := range []TransactionKind{KindStockIn, KindStockOut, KindAdjustment, KindCount} {
		if !kind.Valid() {
			t.Errorf("expected %q to be valid", kind)
		}
	}
	for _, kind := range []TransactionKind{"", "transfer", "STOCK_IN"} {
		if kind.Valid() {
			t.Errorf("expected %q to be invalid", kind)
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{"supplier": "acme", "batch": "B-12"}
	value, err := meta.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	var decoded Metadata
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if decoded["supplier"] != "acme" {
		t.Errorf("expected supplier acme, got %v", decoded["supplier"])
	}
}

func TestMetadataScanNil(t *testing.T) {
	var meta Metadata
	if err := meta.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil metadata, got %v", meta)
	}
}

func TestRoleMeets(t *testing.T) {
	if !RoleOwner.Meets(RoleOwner) || !RoleOwner.Meets(RoleMember) {
		t.Error("owner must meet both roles")
	}
	if RoleMember.Meets(RoleOwner) {
		t.Error("member must not meet owner")
	}
	if !RoleMember.Meets(RoleMember) {
		t.Error("member must meet member")
	}
	if Role("viewer").Meets(RoleMember) {
		t.Error("unknown role must meet nothing")
	}
}
