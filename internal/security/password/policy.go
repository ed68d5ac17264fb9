package password

import "unicode"

// Policy es la complejidad mínima exigida al registrar una cuenta
// password. Los motivos de rechazo son códigos estables que viajan en
// el detalle del error HTTP.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// Validate evalúa la contraseña contra la política. El largo se mide en
// runes; una ñ o un kanji cuentan como un carácter.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if p.RequireUpper && !hasUpper {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasLower {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasDigit {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasSymbol {
		reasons = append(reasons, "missing_symbol")
	}
	return len(reasons) == 0, reasons
}
