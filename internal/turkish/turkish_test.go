package turkish

import "testing"

func TestLowerTitleRoundTrip(t *testing.T) {
	cases := []string{"İSTANBUL", "KADIKÖY", "çankaya", "ŞİŞLİ", "Ankara"}
	for _, s := range cases {
		if got, want := Lower(TitleWord(s)), Lower(s); got != want {
			t.Errorf("Lower(TitleWord(%q)) = %q, want %q", s, got, want)
		}
	}
}

func TestTitleWordDottedI(t *testing.T) {
	if got, want := TitleWord("istanbul"), "İstanbul"; got != want {
		t.Errorf("TitleWord(istanbul) = %q, want %q", got, want)
	}
	if got, want := TitleWord("izmir"), "İzmir"; got != want {
		t.Errorf("TitleWord(izmir) = %q, want %q", got, want)
	}
}

func TestProtectedLiteralRoundTrips(t *testing.T) {
	for _, lit := range []string{"İstanbul", "İzmir", "İnönü"} {
		if got := TitleWord(lit); got != lit {
			t.Errorf("TitleWord(%q) = %q, want unchanged", lit, got)
		}
	}
}

func TestNormalizeForCompareCollapsesWhitespace(t *testing.T) {
	got := NormalizeForCompare("  Kadıköy   Moda  Mah.  ")
	want := "kadıköy moda mah"
	if got != want {
		t.Errorf("NormalizeForCompare = %q, want %q", got, want)
	}
}

func TestNormalizeForCompareKeepsSlashAndDash(t *testing.T) {
	got := NormalizeForCompare("10/A-B")
	if got != "10/a-b" {
		t.Errorf("NormalizeForCompare = %q", got)
	}
}

func TestASCIIFold(t *testing.T) {
	got := ASCIIFold("Kadıköy Çankaya Öğretmen Şükrü Ünlü Ğğ")
	want := "kadikoy cankaya ogretmen sukru unlu gg"
	if got != want {
		t.Errorf("ASCIIFold = %q, want %q", got, want)
	}
}

func TestWeightedLevenshteinConfusablesCheaperThanPlain(t *testing.T) {
	weighted := WeightedLevenshtein("kadikoy", "kadıköy")
	if weighted >= 2.0 {
		t.Errorf("expected cheap confusable substitutions, got distance %v", weighted)
	}
	plain := WeightedLevenshtein("kadikoy", "ankara")
	if plain < weighted {
		t.Errorf("expected unrelated strings to cost more than confusable pair")
	}
}

func TestLevenshteinSimilarityIdentical(t *testing.T) {
	if got := LevenshteinSimilarity("istanbul", "istanbul"); got != 1.0 {
		t.Errorf("similarity of identical strings = %v, want 1.0", got)
	}
}

func TestPreserveTurkishStripsStrayCombiningMarks(t *testing.T) {
	// "i" followed by a standalone combining dot above (U+0307) artifact.
	in := "i̇stanbul"
	got := PreserveTurkish(in)
	if len(got) == 0 {
		t.Fatal("PreserveTurkish emptied the string")
	}
	// The stray mark is removed and the base letters are kept.
	if got != "istanbul" {
		t.Errorf("PreserveTurkish(%q) = %q, want %q", in, got, "istanbul")
	}
}

func TestPreserveTurkishKeepsPrecomposedLetters(t *testing.T) {
	in := "Çankaya Öğretmen Şükrü Ünlü Ğğ İstanbul Kadıköy"
	if got := PreserveTurkish(in); got != in {
		t.Errorf("PreserveTurkish altered precomposed Turkish letters: got %q, want %q", got, in)
	}
}
