package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected verify to succeed")
	}
	if Verify("wrong password", phc) {
		t.Fatal("expected verify to fail for wrong password")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyMalformedPHC(t *testing.T) {
	cases := []string{
		"",
		"not a phc",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=0,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$ZGs",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$",
	}
	for _, phc := range cases {
		if Verify("x", phc) {
			t.Errorf("expected verify to fail for %q", phc)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	p := Policy{MinLength: 8, RequireUpper: true, RequireDigit: true}

	if ok, _ := p.Validate("Abcdef12"); !ok {
		t.Fatal("expected valid password")
	}
	ok, reasons := p.Validate("abc")
	if ok {
		t.Fatal("expected invalid password")
	}
	want := map[string]bool{"too_short": true, "missing_upper": true, "missing_digit": true}
	for _, r := range reasons {
		if !want[r] {
			t.Errorf("unexpected reason %q", r)
		}
		delete(want, r)
	}
	if len(want) != 0 {
		t.Errorf("missing reasons: %v", want)
	}
}
