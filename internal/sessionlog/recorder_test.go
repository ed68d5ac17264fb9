package sessionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/store/core"
	"github.com/linguala/linguala/internal/store/memory"
)

func TestRecordAndHistory(t *testing.T) {
	repo := memory.New()
	rec := New(repo, time.Second)
	ctx := context.Background()

	rec.Record(ctx, Entry{UserID: "u1", Email: "a@x.com", Provider: types.ProviderGoogle, UserAgent: "ua"})
	rec.Record(ctx, Entry{UserID: "u1", Email: "a@x.com", Provider: types.ProviderPassword, IsLinkAction: true})
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	events, err := rec.History(ctx, core.SessionEventFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.ID == "" || ev.LoginTime.IsZero() {
			t.Errorf("evento incompleto: %+v", ev)
		}
	}

	links, err := rec.History(ctx, core.SessionEventFilter{UserID: "u1", OnlyLinks: true})
	if err != nil {
		t.Fatalf("History(links): %v", err)
	}
	if len(links) != 1 || !links[0].IsLinkAction {
		t.Fatalf("links = %+v", links)
	}
}

func TestRecordSurvivesCancelledContext(t *testing.T) {
	repo := memory.New()
	rec := New(repo, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	rec.Record(ctx, Entry{UserID: "u1", Provider: types.ProviderGoogle})
	cancel()

	if err := rec.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	events, err := rec.History(context.Background(), core.SessionEventFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1: cancelar el request no debe perder el evento", len(events))
	}
}

// failingRepo fuerza el fallo de AppendSessionEvent.
type failingRepo struct {
	core.Repository
}

func (f *failingRepo) AppendSessionEvent(context.Context, *types.SessionEvent) error {
	return errors.New("store down")
}

func TestRecordFailureIsSilent(t *testing.T) {
	rec := New(&failingRepo{Repository: memory.New()}, time.Second)

	// No debe entrar en pánico ni bloquear.
	rec.Record(context.Background(), Entry{UserID: "u1", Provider: types.ProviderGoogle})
	if err := rec.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestStatsFor(t *testing.T) {
	repo := memory.New()
	rec := New(repo, time.Second)
	ctx := context.Background()

	rec.Record(ctx, Entry{UserID: "u1", Provider: types.ProviderGoogle})
	rec.Record(ctx, Entry{UserID: "u1", Provider: types.ProviderGoogle})
	rec.Record(ctx, Entry{UserID: "u1", Provider: types.ProviderGitHub, IsLinkAction: true})
	rec.Record(ctx, Entry{UserID: "u2", Provider: types.ProviderPassword})
	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	st, err := rec.StatsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if st.Total != 3 || st.Links != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.ByProvider[types.ProviderGoogle] != 2 || st.ByProvider[types.ProviderGitHub] != 1 {
		t.Errorf("byProvider = %v", st.ByProvider)
	}
	if st.LastLogin.IsZero() {
		t.Error("lastLogin vacío")
	}
}
