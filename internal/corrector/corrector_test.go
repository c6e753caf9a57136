package corrector

import (
	"strings"
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testIndex() *refdb.ReferenceIndex {
	return refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
	})
}

func TestCorrectEmptyInput(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("   ")
	if res.Confidence != 0 || len(res.Edits) != 0 {
		t.Fatalf("expected neutral default for blank input, got %+v", res)
	}
}

func TestCorrectExpandsAbbreviations(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("Moda Mah. Caferağa Sk.")
	if !strings.Contains(res.Corrected, "Mahallesi") {
		t.Errorf("expected Mahallesi expansion, got %q", res.Corrected)
	}
	if !strings.Contains(res.Corrected, "Sokak") {
		t.Errorf("expected Sokak expansion, got %q", res.Corrected)
	}
}

func TestCorrectFixesKnownMisspelling(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("istbl kadikoy")
	if !strings.Contains(strings.ToLower(res.Corrected), "istanbul") {
		t.Errorf("expected istbl -> istanbul, got %q", res.Corrected)
	}
}

func TestCorrectPreservesBuildingNumberCompoundForm(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("Moda Mah. 10/a")
	if !strings.Contains(res.Corrected, "10/A") {
		t.Errorf("expected 10/a to become 10/A, got %q", res.Corrected)
	}
}

func TestCorrectNoLeadingTrailingOrDoubleSpaces(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("  Moda    Mah.   10  ")
	if strings.TrimSpace(res.Corrected) != res.Corrected {
		t.Errorf("corrected has leading/trailing space: %q", res.Corrected)
	}
	if strings.Contains(res.Corrected, "  ") {
		t.Errorf("corrected has internal double space: %q", res.Corrected)
	}
}

func TestCorrectNeverChangesExactReferenceMember(t *testing.T) {
	c := New(DefaultTable(), testIndex())
	res := c.Correct("İstanbul Kadıköy Moda Mahallesi")
	for _, e := range res.Edits {
		if e.Kind == "fuzzyAdminFix" && (e.Original == "İstanbul" || e.Original == "Kadıköy") {
			t.Errorf("exact reference member was fuzzy-corrected: %+v", e)
		}
	}
}
