package lessons

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
	l, err := svc.Create(context.Background(), CreateInput{
		Title:    "  Saludos básicos  ",
		Language: "frances",
		Level:    types.LevelBeginner,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == "" {
		t.Error("ID vacío")
	}
	if l.Title != "Saludos básicos" {
		t.Errorf("title = %q, want recortado", l.Title)
	}
	if l.Status != types.LessonPending {
		t.Errorf("status = %q, want pendiente", l.Status)
	}
	if l.CreatedAt.IsZero() || !l.UpdatedAt.Equal(l.CreatedAt) {
		t.Errorf("timestamps: %v %v", l.CreatedAt, l.UpdatedAt)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"sin título", CreateInput{Language: "ingles", Level: types.LevelBeginner}, ErrTitleRequired},
		{"idioma desconocido", CreateInput{Title: "x", Language: "klingon", Level: types.LevelBeginner}, ErrInvalidLanguage},
		{"nivel inválido", CreateInput{Title: "x", Language: "ingles", Level: "experto"}, ErrInvalidLevel},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestUpdateAndComplete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	l, err := svc.Create(ctx, CreateInput{Title: "Verbos", Language: "aleman", Level: types.LevelIntermediate})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Verbos irregulares"
	got, err := svc.Update(ctx, l.ID, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != title || got.Language != "aleman" {
		t.Errorf("lesson = %+v", got)
	}

	bad := "terminada"
	if _, err := svc.Update(ctx, l.ID, UpdateInput{Status: &bad}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}

	done, err := svc.Complete(ctx, l.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != types.LessonCompleted {
		t.Errorf("status = %q", done.Status)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	l, err := svc.Create(ctx, CreateInput{Title: "Kanji", Language: "japones", Level: types.LevelAdvanced})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, l.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get tras delete: %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "no-existe"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Delete inexistente: %v, want ErrNotFound", err)
	}
}

func TestListOrder(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, title := range []string{"uno", "dos", "tres"} {
		if _, err := svc.Create(ctx, CreateInput{Title: title, Language: "ruso", Level: types.LevelBeginner}); err != nil {
			t.Fatalf("Create(%s): %v", title, err)
		}
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Errorf("lista sin ordenar por createdAt desc")
		}
	}
}
