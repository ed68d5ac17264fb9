package dto

import "time"

// SocialStartResponse describe un flujo federado recién iniciado. El
// frontend redirige al usuario a AuthURL.
type SocialStartResponse struct {
	FlowID  string `json:"flow_id"`
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// LinkedResponse es la respuesta de una vinculación completada.
type LinkedResponse struct {
	Provider string       `json:"provider"`
	User     UserResponse `json:"user"`
}

// ConflictResponse se devuelve cuando un acceso federado choca con una
// cuenta existente. El frontend guía al usuario a reautenticarse con uno
// de los métodos listados para vincular el nuevo.
type ConflictResponse struct {
	Code     string   `json:"code"` // siempre "ACCOUNT_CONFLICT"
	Message  string   `json:"message"`
	FlowID   string   `json:"flow_id"`
	Email    string   `json:"email"`
	Provider string   `json:"provider"`
	Methods  []string `json:"methods"`
}

// FlowResponse es la vista de un flujo de reconciliación en curso.
type FlowResponse struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	Methods   []string  `json:"methods"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolveRequest reautentica al dueño de la cuenta en conflicto.
type ResolveRequest struct {
	Password string `json:"password"`
}
