package kgraph

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Epoxy", want: "epoxy"},
		{name: "uppercase with spaces", in: "DIN EN 17460-1", want: "din-en-17460-1"},
		{name: "punctuation runs collapse", in: "Sika  --  Tack / Plus!", want: "sika-tack-plus"},
		{name: "leading and trailing noise", in: "  (Adhesive)  ", want: "adhesive"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalEntityIDStable(t *testing.T) {
	a := CanonicalEntityID(EntityStandard, "DIN EN 17460-1")
	b := CanonicalEntityID(EntityStandard, "din en 17460-1")
	if a != b {
		t.Errorf("canonical ids differ for equivalent names: %q vs %q", a, b)
	}
	if a != "STANDARD:din-en-17460-1" {
		t.Errorf("CanonicalEntityID() = %q", a)
	}
}

func TestCanonicalEntityIDDistinguishesTypes(t *testing.T) {
	a := CanonicalEntityID(EntityStandard, "EN 17460")
	b := CanonicalEntityID(EntityCertificate, "EN 17460")
	if a == b {
		t.Error("entities of different types must not share an id")
	}
}

func TestCanonicalRelationshipID(t *testing.T) {
	src := CanonicalEntityID(EntityStandard, "DIN 6701-2")
	tgt := CanonicalEntityID(EntityStandard, "DIN EN 17460-1")
	got := CanonicalRelationshipID(src, RelSupersedes, tgt)
	want := "STANDARD:din-6701-2|SUPERSEDES|STANDARD:din-en-17460-1"
	if got != want {
		t.Errorf("CanonicalRelationshipID() = %q, want %q", got, want)
	}
}

func TestValidEntityType(t *testing.T) {
	if !ValidEntityType(EntityMaterial) {
		t.Error("MATERIAL should be a valid entity type")
	}
	if ValidEntityType("PERSON") {
		t.Error("PERSON is not in the closed enum")
	}
}

func TestValidRelationshipType(t *testing.T) {
	if !ValidRelationshipType(RelSupersedes) {
		t.Error("SUPERSEDES should be a valid relationship type")
	}
	if ValidRelationshipType("KNOWS") {
		t.Error("KNOWS is not in the closed enum")
	}
}
