package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cmagness/glue/pkg/collection"
	"github.com/cmagness/glue/pkg/model"
)

// StateVersion is the current version of the session file format.
const StateVersion = 1

// ErrUnsupportedVersion is returned when loading a file written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported session file version")

// SessionState is the saved content of a workspace.
type SessionState struct {
	// Version is the session file format version.
	Version int `yaml:"version"`

	// SavedAt is when the state was saved.
	SavedAt time.Time `yaml:"saved_at"`

	// Datasets in collection order.
	Datasets []DatasetState `yaml:"datasets,omitempty"`

	// Active references the active subset, if any.
	Active *ActiveRef `yaml:"active,omitempty"`
}

// DatasetState is one saved Data.
type DatasetState struct {
	ID         string           `yaml:"id"`
	Label      string           `yaml:"label"`
	Style      StyleState       `yaml:"style"`
	Shape      []int            `yaml:"shape,flow"`
	Components []ComponentState `yaml:"components,omitempty"`
	Subsets    []SubsetState    `yaml:"subsets,omitempty"`
	Metadata   map[string]any   `yaml:"metadata,omitempty"`
}

// ComponentState is one saved Component.
type ComponentState struct {
	Name   string    `yaml:"name"`
	Units  string    `yaml:"units,omitempty"`
	Values []float64 `yaml:"values,flow"`
}

// SubsetState is one saved Subset.
type SubsetState struct {
	ID    string     `yaml:"id"`
	Style StyleState `yaml:"style"`

	// Selected holds the flat indices of the selected elements.
	Selected []int `yaml:"selected,flow,omitempty"`
}

// StyleState mirrors model.Style for YAML serialization.
type StyleState struct {
	Label string  `yaml:"label"`
	Color string  `yaml:"color,omitempty"`
	Alpha float64 `yaml:"alpha"`
}

// ActiveRef locates the active subset by position.
type ActiveRef struct {
	Dataset int `yaml:"dataset"`
	Subset  int `yaml:"subset"`
}

func styleState(s model.Style) StyleState {
	return StyleState{Label: s.Label, Color: s.Color, Alpha: s.Alpha}
}

func (s StyleState) style() model.Style {
	return model.Style{Label: s.Label, Color: s.Color, Alpha: s.Alpha}
}

// Capture snapshots dc. It fails if a subset mask cannot be computed.
func Capture(dc *collection.DataCollection) (*SessionState, error) {
	state := &SessionState{Version: StateVersion}
	active := dc.Active()

	for di, d := range dc.Data() {
		ds := DatasetState{
			ID:       d.ID(),
			Label:    d.Label(),
			Style:    styleState(d.Style()),
			Shape:    d.Shape(),
			Metadata: d.Metadata(),
		}
		if len(ds.Metadata) == 0 {
			ds.Metadata = nil
		}

		for _, name := range d.ComponentNames() {
			c, err := d.Component(name)
			if err != nil {
				return nil, err
			}
			ds.Components = append(ds.Components, ComponentState{
				Name:   name,
				Units:  c.Units(),
				Values: c.Values(),
			})
		}

		for si, s := range d.Subsets() {
			mask, err := s.ToMask()
			if err != nil {
				return nil, fmt.Errorf("subset %s of %s: %w", s.Label(), d.Label(), err)
			}
			ds.Subsets = append(ds.Subsets, SubsetState{
				ID:       s.ID(),
				Style:    styleState(s.Style()),
				Selected: model.SelectedIndices(mask),
			})
			if s == active {
				state.Active = &ActiveRef{Dataset: di, Subset: si}
			}
		}

		state.Datasets = append(state.Datasets, ds)
	}

	return state, nil
}

// Restore rebuilds the saved data sets and subsets into dc. Restored
// entities get new identifiers. Every data set and subset is built and
// validated before the first one is appended, so a malformed state leaves dc
// untouched. When dc is bound to a hub the usual add and create messages are
// broadcast; handler failures do not stop the restore and are returned joined.
func Restore(state *SessionState, dc *collection.DataCollection) error {
	if state == nil {
		return nil
	}
	if state.Version > StateVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	type restored struct {
		data    *model.Data
		subsets []*model.Subset
	}

	built := make([]restored, 0, len(state.Datasets))
	var active *model.Subset
	for di, ds := range state.Datasets {
		d, err := ds.build()
		if err != nil {
			return err
		}

		r := restored{data: d}
		for si, ss := range ds.Subsets {
			s, err := ss.build(d)
			if err != nil {
				return fmt.Errorf("dataset %q subset %d: %w", ds.Label, si, err)
			}
			r.subsets = append(r.subsets, s)
			if state.Active != nil && state.Active.Dataset == di && state.Active.Subset == si {
				active = s
			}
		}
		built = append(built, r)
	}

	var errs []error
	for _, r := range built {
		if err := dc.Append(r.data); err != nil {
			if !dc.Contains(r.data) {
				return errors.Join(append(errs, err)...)
			}
			errs = append(errs, err)
		}
		for _, s := range r.subsets {
			if err := r.data.AddSubset(s); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if active != nil {
		if err := dc.SetActive(active); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// build creates the unbound Data described by ds.
func (ds DatasetState) build() (*model.Data, error) {
	d := model.NewData(ds.Label)
	for _, cs := range ds.Components {
		c, err := model.NewComponent(cs.Values, ds.Shape, cs.Units)
		if err != nil {
			return nil, fmt.Errorf("dataset %q component %q: %w", ds.Label, cs.Name, err)
		}
		if err := d.AddComponent(cs.Name, c); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", ds.Label, err)
		}
	}
	for k, v := range ds.Metadata {
		d.SetMetadata(k, v)
	}
	if err := d.SetStyle(ds.Style.style()); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", ds.Label, err)
	}
	return d, nil
}

// build creates a detached subset of d whose selection is checked against d.
func (ss SubsetState) build(d *model.Data) (*model.Subset, error) {
	state := model.NewElementState(ss.Selected)
	if _, err := state.Mask(d); err != nil {
		return nil, err
	}

	s := model.NewSubset(d)
	if err := s.SetStyle(ss.Style.style()); err != nil {
		return nil, err
	}
	if err := s.SetState(state); err != nil {
		return nil, err
	}
	return s, nil
}

// Store manages persistence of session state to a YAML file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists state to disk.
func (s *Store) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the session state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *Store) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &SessionState{}
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	return state, nil
}

// Clear removes the state file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
