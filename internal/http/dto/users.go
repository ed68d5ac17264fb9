package dto

// UserCreateRequest es el alta administrativa de un perfil. La cuenta no
// puede iniciar sesión hasta que el dueño registre un método.
type UserCreateRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role,omitempty"`
}

// UserUpdateRequest edita un perfil. Campos ausentes no cambian;
// providers nunca se edita por esta vía.
type UserUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Role      *string `json:"role,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// UserListResponse es el listado administrativo completo.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
