package devicekey

import (
	"testing"

	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

func TestDeriveDeterministic(t *testing.T) {
	a := Derive(1, "SN-0001")
	b := Derive(1, "SN-0001")
	if a != b {
		t.Errorf("Derive not deterministic: %q != %q", a, b)
	}
	if !Valid(a) {
		t.Errorf("Derive returned invalid key %q", a)
	}
}

func TestDeriveDistinct(t *testing.T) {
	tests := []struct {
		name   string
		owner1 registry.OwnerID
		s1     string
		owner2 registry.OwnerID
		s2     string
	}{
		{"different serial", 1, "a", 1, "b"},
		{"different owner", 1, "a", 2, "a"},
		{"empty serial", 1, "", 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Derive(tt.owner1, tt.s1) == Derive(tt.owner2, tt.s2) {
				t.Error("keys collide")
			}
		})
	}
}

func TestNew(t *testing.T) {
	k1, s1 := New(3)
	k2, s2 := New(3)
	if s1 == s2 || k1 == k2 {
		t.Error("New should produce fresh serials")
	}
	if Derive(3, s1) != k1 {
		t.Error("New key does not match Derive of its serial")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		key  registry.DeviceKey
		want bool
	}{
		{Derive(1, "x"), true},
		{"", false},
		{"kitchen", false},
		{"zz000000000000000000000000000000", false},
		{"00112233445566778899aabbccddeeff", true},
	}
	for _, tt := range tests {
		if got := Valid(tt.key); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
