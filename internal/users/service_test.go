package users

import (
	"context"
	"errors"
	"testing"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/store/memory"
)

func newService() *Service {
	return New(memory.New())
}

func TestCreateDefaults(t *testing.T) {
	svc := newService()
	u, err := svc.Create(context.Background(), CreateInput{
		Email:     "  Ana@Example.COM ",
		FirstName: "Ana",
		LastName:  "García",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalizado", u.Email)
	}
	if u.Role != types.RoleUser || u.Status != types.StatusActive {
		t.Errorf("defaults = %q %q", u.Role, u.Status)
	}
	if len(u.Providers) != 0 {
		t.Errorf("providers = %v, want vacío", u.Providers)
	}
	if !u.LastLogin.IsZero() {
		t.Error("lastLogin debe quedar vacío en alta administrativa")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Email: "no-es-email"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("err = %v, want ErrInvalidEmail", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Email: "a@x.com", Role: "superadmin"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, want ErrInvalidRole", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Email: "a@x.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Email: "a@x.com"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUpdateRoleAndDisable(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: "a@x.com", FirstName: "Ana"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	role := types.RoleAdmin
	got, err := svc.Update(ctx, u.UID, UpdateInput{Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != types.RoleAdmin {
		t.Errorf("role = %q", got.Role)
	}

	bad := "congelado"
	if _, err := svc.Update(ctx, u.UID, UpdateInput{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}

	disabled, err := svc.Disable(ctx, u.UID)
	if err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if !disabled.IsDisabled() {
		t.Errorf("status = %q", disabled.Status)
	}
}

func TestGetByEmailAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Email: "leo@x.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.GetByEmail(ctx, "LEO@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.UID != u.UID {
		t.Errorf("uid = %q, want %q", got.UID, u.UID)
	}

	if err := svc.Delete(ctx, u.UID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, u.UID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get tras delete: %v, want ErrNotFound", err)
	}
}
