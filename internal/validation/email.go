package validation

import "strings"

// ValidEmail valida la forma básica local@dominio.tld antes de cualquier
// llamada de red. No pretende validar RFC 5322 completo; el identity provider
// hace la validación definitiva.
//
// Reglas:
//   - exactamente un '@', con parte local y dominio no vacíos
//   - el dominio contiene al menos un '.' y no empieza ni termina en '.'
//   - el TLD tiene al menos 2 caracteres
//   - sin espacios, máximo 254 caracteres
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if local == "" || domain == "" {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	if dot < 0 {
		return false
	}
	if len(domain)-dot-1 < 2 {
		return false
	}
	return true
}

// NormalizeEmail recorta espacios y pasa a minúsculas. Todos los emails se
// guardan y comparan normalizados.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
