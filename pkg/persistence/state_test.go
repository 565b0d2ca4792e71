package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cmagness/glue/pkg/collection"
	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/model"
)

func buildCollection(t *testing.T) (*collection.DataCollection, *model.Subset) {
	t.Helper()

	dc := collection.New()
	d := model.NewData("image")
	flux, err := model.NewComponent([]float64{1, 2, 3, 4}, []int{2, 2}, "Jy")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddComponent("flux", flux); err != nil {
		t.Fatal(err)
	}
	d.SetMetadata("telescope", "VLA")
	if err := dc.Append(d); err != nil {
		t.Fatal(err)
	}

	bright, err := d.NewSubset()
	if err != nil {
		t.Fatal(err)
	}
	if err := bright.SetState(model.RangeState{Component: "flux", Lo: 3, Hi: 10}); err != nil {
		t.Fatal(err)
	}
	if err := bright.SetLabel("bright"); err != nil {
		t.Fatal(err)
	}

	corner, err := d.NewSubset()
	if err != nil {
		t.Fatal(err)
	}
	if err := corner.SetState(model.NewElementState([]int{0})); err != nil {
		t.Fatal(err)
	}

	if err := dc.SetActive(bright); err != nil {
		t.Fatal(err)
	}
	return dc, bright
}

func TestCapture(t *testing.T) {
	dc, _ := buildCollection(t)

	state, err := Capture(dc)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if len(state.Datasets) != 1 {
		t.Fatalf("len(Datasets) = %d, want 1", len(state.Datasets))
	}
	ds := state.Datasets[0]
	if ds.Label != "image" {
		t.Errorf("Label = %q, want image", ds.Label)
	}
	if !slices.Equal(ds.Shape, []int{2, 2}) {
		t.Errorf("Shape = %v, want [2 2]", ds.Shape)
	}
	if len(ds.Subsets) != 2 {
		t.Fatalf("len(Subsets) = %d, want 2", len(ds.Subsets))
	}
	if !slices.Equal(ds.Subsets[0].Selected, []int{2, 3}) {
		t.Errorf("Subsets[0].Selected = %v, want [2 3]", ds.Subsets[0].Selected)
	}
	if ds.Subsets[0].Style.Label != "bright" {
		t.Errorf("Subsets[0] label = %q, want bright", ds.Subsets[0].Style.Label)
	}
	if state.Active == nil || state.Active.Dataset != 0 || state.Active.Subset != 0 {
		t.Errorf("Active = %+v, want {0 0}", state.Active)
	}
}

func TestRestore(t *testing.T) {
	src, _ := buildCollection(t)
	state, err := Capture(src)
	if err != nil {
		t.Fatal(err)
	}

	h := hub.New(hub.Config{})
	dst := collection.New()
	if err := dst.RegisterToHub(h); err != nil {
		t.Fatal(err)
	}
	var creates int
	if err := h.Subscribe(t, message.KindSubsetCreate, func(message.Message) error {
		creates++
		return nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	if err := Restore(state, dst); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if dst.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dst.Len())
	}
	d := dst.Data()[0]
	if d.Hub() == nil {
		t.Error("restored data not bound to hub")
	}
	if got := d.Metadata()["telescope"]; got != "VLA" {
		t.Errorf("metadata telescope = %v, want VLA", got)
	}
	if creates != 2 {
		t.Errorf("creates = %d, want 2", creates)
	}

	subsets := d.Subsets()
	if len(subsets) != 2 {
		t.Fatalf("len(Subsets) = %d, want 2", len(subsets))
	}
	mask, err := subsets[0].ToMask()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(mask, []bool{false, false, true, true}) {
		t.Errorf("mask = %v", mask)
	}
	if dst.Active() != subsets[0] {
		t.Error("active subset not restored")
	}
	if subsets[0].Label() != "bright" {
		t.Errorf("label = %q, want bright", subsets[0].Label())
	}
}

func TestRestoreRejectsNewerVersion(t *testing.T) {
	err := Restore(&SessionState{Version: StateVersion + 1}, collection.New())
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Restore() error = %v, want ErrUnsupportedVersion", err)
	}
	if err := Restore(nil, collection.New()); err != nil {
		t.Errorf("Restore(nil) error = %v", err)
	}
}

func TestRestoreBadComponent(t *testing.T) {
	state := &SessionState{
		Version: StateVersion,
		Datasets: []DatasetState{{
			Label:      "broken",
			Shape:      []int{3},
			Style:      StyleState{Label: "broken", Alpha: 1},
			Components: []ComponentState{{Name: "x", Values: []float64{1}}},
		}},
	}
	err := Restore(state, collection.New())
	if !errors.Is(err, model.ErrShapeMismatch) {
		t.Errorf("Restore() error = %v, want ErrShapeMismatch", err)
	}
}

func TestRestoreValidatesBeforeAppending(t *testing.T) {
	src, _ := buildCollection(t)
	state, err := Capture(src)
	if err != nil {
		t.Fatal(err)
	}
	bad := state.Datasets[0]
	bad.Label = "late"
	bad.Subsets = []SubsetState{{Style: StyleState{Label: "far", Alpha: 1}, Selected: []int{99}}}
	state.Datasets = append(state.Datasets, bad)

	h := hub.New(hub.Config{})
	dst := collection.New()
	if err := dst.RegisterToHub(h); err != nil {
		t.Fatal(err)
	}
	var seen int
	if err := h.Subscribe(t, message.KindMessage, func(message.Message) error {
		seen++
		return nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	err = Restore(state, dst)
	if !errors.Is(err, model.ErrIndexOutOfRange) {
		t.Fatalf("Restore() error = %v, want ErrIndexOutOfRange", err)
	}
	if dst.Len() != 0 {
		t.Errorf("Len() = %d, want 0", dst.Len())
	}
	if seen != 0 {
		t.Errorf("%d messages broadcast for a rejected state", seen)
	}
}

func TestRestoreContinuesAfterHandlerFailure(t *testing.T) {
	src, _ := buildCollection(t)
	state, err := Capture(src)
	if err != nil {
		t.Fatal(err)
	}

	h := hub.New(hub.Config{})
	dst := collection.New()
	if err := dst.RegisterToHub(h); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("viewer refused")
	if err := h.Subscribe(t, message.KindDataCollectionAdd, func(message.Message) error {
		return boom
	}, nil); err != nil {
		t.Fatal(err)
	}

	err = Restore(state, dst)
	if !errors.Is(err, boom) {
		t.Fatalf("Restore() error = %v, want %v", err, boom)
	}
	if dst.Len() != 1 || len(dst.Data()[0].Subsets()) != 2 {
		t.Fatalf("restore incomplete: %d data sets", dst.Len())
	}
	if dst.Active() != dst.Data()[0].Subsets()[0] {
		t.Error("active subset not restored")
	}
}

func TestStore(t *testing.T) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "nested", "session.yaml"))

		dc, _ := buildCollection(t)
		state, err := Capture(dc)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if state.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if len(got.Datasets) != 1 || len(got.Datasets[0].Subsets) != 2 {
			t.Fatalf("Datasets = %+v", got.Datasets)
		}
		if !slices.Equal(got.Datasets[0].Components[0].Values, []float64{1, 2, 3, 4}) {
			t.Errorf("Values = %v", got.Datasets[0].Components[0].Values)
		}
		if got.Datasets[0].Components[0].Units != "Jy" {
			t.Errorf("Units = %q, want Jy", got.Datasets[0].Components[0].Units)
		}
		if !got.SavedAt.Equal(state.SavedAt) {
			t.Errorf("SavedAt = %v, want %v", got.SavedAt, state.SavedAt)
		}
	})

	t.Run("FileIsYAML", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "session.yaml")
		store := NewStore(path)
		if err := store.Save(&SessionState{SavedAt: time.Unix(0, 0).UTC()}); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "version: 1\n") {
			t.Errorf("file content = %q", data)
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("LoadInvalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("version: [unclosed"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStore(path).Load(); err == nil {
			t.Error("Load() expected error for invalid YAML")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.yaml")
		store := NewStore(path)
		if err := store.Save(&SessionState{}); err != nil {
			t.Fatal(err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("file still exists after Clear()")
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})
}
