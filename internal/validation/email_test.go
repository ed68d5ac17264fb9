package validation

import "testing"

func TestValidEmail_Valid(t *testing.T) {
	valids := []string{
		"a@x.com",
		"maria.lopez@escuela.edu",
		"user+tag@sub.dominio.org",
		"UPPER@CASE.COM",
		"n1@d-2.io",
	}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidEmail_Invalid(t *testing.T) {
	invalids := []string{
		"",                   // empty
		"sinArroba.com",      // no @
		"@dominio.com",       // empty local part
		"user@",              // empty domain
		"user@dominio",       // no dot in domain
		"user@.dominio.com",  // leading dot
		"user@dominio.com.",  // trailing dot
		"user@dominio.c",     // 1-char TLD
		"dos@arrobas@x.com",  // two @
		"con espacio@x.com",  // space
		"a@" + mkLen(260),    // too long overall
	}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	got := NormalizeEmail("  Maria.Lopez@Escuela.EDU ")
	want := "maria.lopez@escuela.edu"
	if got != want {
		t.Fatalf("normalize: got %q want %q", got, want)
	}
}

func mkLen(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a'
	}
	return string(out) + ".com"
}
