package tracker

import (
	"errors"
	"testing"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/testutil"
)

func TestRegistryRebindIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll(testutil.MixedTable(), nil)

	if n := r.Rebind(true); n != 10 {
		t.Fatalf("first Rebind() = %d, want 10", n)
	}
	if n := r.Rebind(true); n != 0 {
		t.Errorf("second Rebind() = %d, want 0", n)
	}

	row, _ := r.Get(4)
	row.Comments = "replaced"
	if err := r.Replace(row); err != nil {
		t.Fatal(err)
	}
	if r.Wired(4) {
		t.Error("replaced row kept its wiring")
	}
	if n := r.Rebind(true); n != 1 {
		t.Errorf("Rebind() after replace = %d, want 1", n)
	}
	if got, _ := r.Get(4); got.Comments != "replaced" || r.Index(4) != 3 {
		t.Errorf("replace lost identity or position: %+v at %d", got, r.Index(4))
	}
}

func TestRegistryReadOnlyNeverWires(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll(testutil.MixedTable(), nil)
	if n := r.Rebind(false); n != 0 || r.Wired(1) {
		t.Errorf("Rebind(false) = %d, wired = %v", n, r.Wired(1))
	}
}

func TestRegistryReplaceUnknown(t *testing.T) {
	r := NewRegistry()
	if err := r.Replace(loads.Row{ID: 1}); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("Replace() error = %v, want ErrRowNotFound", err)
	}
}

func TestRegistryReplaceAllKeep(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll([]loads.Row{{ID: 1, Comments: "a"}, {ID: 2, Comments: "b"}}, nil)
	r.Rebind(true)
	r.TakeDirty()

	r.ReplaceAll([]loads.Row{{ID: 2, Comments: "B"}, {ID: 3}, {ID: 1, Comments: "A"}, {ID: 3}},
		func(id int64) bool { return id == 2 })

	if got := r.IDs(); len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 1 {
		t.Errorf("IDs() = %v, want [2 3 1]", got)
	}
	if row, _ := r.Get(2); row.Comments != "b" || !r.Wired(2) {
		t.Errorf("kept row changed: %+v wired=%v", row, r.Wired(2))
	}
	if row, _ := r.Get(1); row.Comments != "A" || r.Wired(1) {
		t.Errorf("replaced row: %+v wired=%v", row, r.Wired(1))
	}
	if !r.TakeDirty() || r.Dirty() {
		t.Error("view-dirty flag not set by ReplaceAll or not cleared by TakeDirty")
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.ReplaceAll([]loads.Row{{ID: 1, Columns: map[string]string{"po": "1"}}}, nil)

	row, _ := r.Get(1)
	row.Columns["po"] = "changed"

	if again, _ := r.Get(1); again.Columns["po"] != "1" {
		t.Error("Get() leaked internal state")
	}
}

func TestSelectDoesNotAffectEdit(t *testing.T) {
	tr, _, _ := newTestTracker(t, testutil.MixedTable()...)

	_ = tr.EnterEdit(2)
	_ = tr.SetDelay(2, "5h")

	if err := tr.Select(7); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if id, _ := tr.Selected(); id != 7 {
		t.Errorf("Selected() = %d, want 7", id)
	}
	if !tr.Edit().Editing(2) || !tr.IsDirty() {
		t.Error("selecting another row touched the open edit")
	}
	if err := tr.Select(404); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("Select(404) error = %v, want ErrRowNotFound", err)
	}
}

func TestActivate(t *testing.T) {
	t.Run("clean_switch_does_not_ask", func(t *testing.T) {
		tr, _, _ := newTestTracker(t, testutil.MixedTable()...)
		_ = tr.EnterEdit(1)

		asked := false
		ok, err := tr.Activate(2, ConfirmFunc(func(string) bool { asked = true; return false }))
		if err != nil || !ok {
			t.Fatalf("Activate() = %v, %v", ok, err)
		}
		if asked {
			t.Error("confirmation requested for a clean edit")
		}
		if !tr.Edit().Editing(2) {
			t.Error("row 2 should be under edit")
		}
	})

	t.Run("decline_keeps_original_edit", func(t *testing.T) {
		tr, _, _ := newTestTracker(t, testutil.MixedTable()...)
		_ = tr.EnterEdit(1)
		_ = tr.SetComments(1, "unsaved")

		var prompt string
		ok, err := tr.Activate(2, ConfirmFunc(func(p string) bool { prompt = p; return false }))
		if err != nil || ok {
			t.Fatalf("Activate() = %v, %v, want false", ok, err)
		}
		if prompt != DiscardPrompt {
			t.Errorf("prompt = %q", prompt)
		}
		if !tr.Edit().Editing(1) || !tr.IsDirty() {
			t.Error("declined switch changed the original edit")
		}
		if got, _ := tr.Row(1); got.Comments != "unsaved" {
			t.Errorf("Comments = %q", got.Comments)
		}
	})

	t.Run("confirm_discards_and_switches", func(t *testing.T) {
		tr, _, _ := newTestTracker(t, testutil.MixedTable()...)
		_ = tr.EnterEdit(1)
		_ = tr.SetComments(1, "unsaved")

		ok, err := tr.Activate(2, Always)
		if err != nil || !ok {
			t.Fatalf("Activate() = %v, %v", ok, err)
		}
		if got, _ := tr.Row(1); got.Comments != "" {
			t.Errorf("discarded row Comments = %q, want restored", got.Comments)
		}
		if !tr.Edit().Editing(2) || tr.IsDirty() {
			t.Error("row 2 should be under a clean edit")
		}
	})

	t.Run("nil_confirmer_declines", func(t *testing.T) {
		tr, _, _ := newTestTracker(t, testutil.MixedTable()...)
		_ = tr.EnterEdit(1)
		_ = tr.SetDelay(1, "1h")

		if ok, _ := tr.Activate(3, nil); ok {
			t.Error("Activate() with nil confirmer switched rows")
		}
	})

	t.Run("same_row_is_noop", func(t *testing.T) {
		tr, _, _ := newTestTracker(t, testutil.MixedTable()...)
		_ = tr.EnterEdit(1)
		_ = tr.SetDelay(1, "1h")

		ok, err := tr.Activate(1, nil)
		if err != nil || !ok || !tr.IsDirty() {
			t.Errorf("Activate(same) = %v, %v, dirty=%v", ok, err, tr.IsDirty())
		}
	})
}
