package model

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cmagness/glue/pkg/message"
)

// Data errors.
var (
	ErrDuplicateComponent = errors.New("duplicate component name")
	ErrNilComponent       = errors.New("component is nil")
	ErrInvalidView        = errors.New("invalid view")
	ErrOwnershipConflict  = errors.New("data has already been assigned to a different hub")
	ErrTypeMismatch       = errors.New("input is not a hub")
	ErrNilSubset          = errors.New("subset is nil")
	ErrForeignSubset      = errors.New("subset belongs to a different data")
	ErrSubsetAttached     = errors.New("subset is already attached")
	ErrSubsetNotFound     = errors.New("subset not found")
	ErrNilTreeReader      = errors.New("tree reader is nil")
)

// Broadcaster delivers messages to subscribers. *hub.Hub implements it.
type Broadcaster interface {
	Broadcast(msg message.Message) error
}

// Data is an aggregate of same-shaped Components, plus metadata and an
// ordered set of Subsets.
type Data struct {
	mu sync.RWMutex

	id    string
	style Style

	shape  []int
	coords Coordinates
	tree   *Tree

	// Components indexed by name; order keeps insertion order for listing.
	components map[string]*Component
	order      []string

	// Subsets in insertion order.
	subsets      []*Subset
	activeSubset *Subset
	subsetSeq    int

	hub      Broadcaster
	metadata map[string]any
}

// NewData creates an empty data set.
func NewData(label string) *Data {
	return &Data{
		id:         uuid.New().String(),
		style:      Style{Label: label, Color: DefaultDataColor, Alpha: 1},
		coords:     IdentityCoordinates{},
		components: make(map[string]*Component),
		metadata:   make(map[string]any),
	}
}

// ID returns the unique data identifier.
func (d *Data) ID() string {
	return d.id
}

// Label returns the display name.
func (d *Data) Label() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.style.Label
}

// Style returns the visual attributes.
func (d *Data) Style() Style {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.style
}

// SetLabel changes the display name and broadcasts a "label" update.
func (d *Data) SetLabel(label string) error {
	d.mu.Lock()
	d.style.Label = label
	d.mu.Unlock()
	return d.Broadcast(AttrLabel)
}

// SetStyle replaces the visual attributes and broadcasts a "style" update.
func (d *Data) SetStyle(style Style) error {
	if err := style.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.style = style
	d.mu.Unlock()
	return d.Broadcast(AttrStyle)
}

// Shape returns a copy of the data shape, or nil before any component is added.
func (d *Data) Shape() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.shape)
}

// NDim returns the number of dimensions.
func (d *Data) NDim() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.shape)
}

// Size returns the number of elements, or 0 before any component is added.
func (d *Data) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sizeLocked()
}

func (d *Data) sizeLocked() int {
	if d.shape == nil {
		return 0
	}
	size := 1
	for _, n := range d.shape {
		size *= n
	}
	return size
}

// AddComponent adds a named component. The first component fixes the shape;
// later components must match it.
func (d *Data) AddComponent(name string, c *Component) error {
	if c == nil {
		return ErrNilComponent
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.components[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateComponent, name)
	}
	if d.shape == nil {
		d.shape = c.Shape()
	} else if !slices.Equal(d.shape, c.shape) {
		return fmt.Errorf("%w: component %q has shape %v, data has %v", ErrShapeMismatch, name, c.shape, d.shape)
	}

	d.components[name] = c
	d.order = append(d.order, name)
	return nil
}

// Component returns the named component.
func (d *Data) Component(name string) (*Component, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: input must be the name of a valid component: %q", ErrInvalidView, name)
	}
	return c, nil
}

// ComponentNames returns the component names in insertion order.
func (d *Data) ComponentNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.order)
}

// Get returns the raw values of the named component.
func (d *Data) Get(name string) ([]float64, error) {
	c, err := d.Component(name)
	if err != nil {
		return nil, err
	}
	return c.Values(), nil
}

// Validate checks that every component matches the data shape.
func (d *Data) Validate() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.components) != len(d.order) {
		return fmt.Errorf("%w: component index out of sync", ErrShapeMismatch)
	}
	for _, name := range d.order {
		c := d.components[name]
		if !slices.Equal(c.shape, d.shape) {
			return fmt.Errorf("%w: component %q has shape %v, data has %v", ErrShapeMismatch, name, c.shape, d.shape)
		}
	}
	return nil
}

// Coords returns the coordinate strategy.
func (d *Data) Coords() Coordinates {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.coords
}

// SetCoords replaces the coordinate strategy. nil restores identity coordinates.
func (d *Data) SetCoords(c Coordinates) {
	if c == nil {
		c = IdentityCoordinates{}
	}
	d.mu.Lock()
	d.coords = c
	d.mu.Unlock()
}

// Tree returns the hierarchical description, or nil.
func (d *Data) Tree() *Tree {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree
}

// SetTree sets the hierarchical description.
func (d *Data) SetTree(t *Tree) {
	d.mu.Lock()
	d.tree = t
	d.mu.Unlock()
}

// ReadTree reads the hierarchical description from filename using r.
func (d *Data) ReadTree(r TreeReader, filename string) error {
	if r == nil {
		return ErrNilTreeReader
	}
	t, err := r.ReadTree(filename)
	if err != nil {
		return fmt.Errorf("read tree %s: %w", filename, err)
	}
	d.SetTree(t)
	return nil
}

// Metadata returns a copy of the free-form metadata.
func (d *Data) Metadata() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.metadata)
}

// SetMetadata sets one metadata entry.
func (d *Data) SetMetadata(key string, value any) {
	d.mu.Lock()
	d.metadata[key] = value
	d.mu.Unlock()
}

// Hub returns the attached broadcaster, or nil.
func (d *Data) Hub() Broadcaster {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hub
}

// SetHub attaches h. Setting the hub that is already attached is a no-op;
// any other assignment while a hub is attached fails with ErrOwnershipConflict.
func (d *Data) SetHub(h Broadcaster) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hub == nil {
		if !isNil(h) {
			d.hub = h
		}
		return nil
	}
	if sameHub(d.hub, h) {
		return nil
	}
	return ErrOwnershipConflict
}

// RegisterToHub attaches h, which must be a non-nil Broadcaster.
func (d *Data) RegisterToHub(h any) error {
	b, ok := h.(Broadcaster)
	if !ok || isNil(b) {
		return fmt.Errorf("%w: %T", ErrTypeMismatch, h)
	}
	return d.SetHub(b)
}

// Broadcast announces a change of attribute to the attached hub.
// Without a hub it does nothing.
func (d *Data) Broadcast(attribute string) error {
	h := d.Hub()
	if h == nil {
		return nil
	}
	return h.Broadcast(message.NewDataUpdateMessage(d, attribute))
}

// NewSubset creates a subset of d, attaches it and returns it. The subset is
// returned even when a subscriber fails to handle the create message.
func (d *Data) NewSubset() (*Subset, error) {
	s := NewSubset(d)
	return s, d.AddSubset(s)
}

// CreateSubset creates a subset of d and registers it.
func (d *Data) CreateSubset() (*Subset, error) {
	s := NewSubset(d)
	return s, s.Register()
}

// AddSubset attaches a subset constructed for d, enables its broadcasting and
// announces it with a SubsetCreateMessage. The subset stays attached even if
// a subscriber returns an error.
func (d *Data) AddSubset(s *Subset) error {
	if s == nil {
		return ErrNilSubset
	}
	if s.data != d {
		return ErrForeignSubset
	}

	d.mu.Lock()
	s.mu.Lock()
	switch s.status {
	case SubsetAttached:
		s.mu.Unlock()
		d.mu.Unlock()
		return ErrSubsetAttached
	case SubsetRemoved:
		s.mu.Unlock()
		d.mu.Unlock()
		return ErrSubsetRemoved
	}
	s.status = SubsetAttached
	s.broadcast = true
	s.mu.Unlock()

	d.subsets = append(d.subsets, s)
	h := d.hub
	d.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Broadcast(message.NewSubsetCreateMessage(s))
}

// RemoveSubset announces the removal with a SubsetDeleteMessage and then
// removes s. Subscribers see the subset still attached with a computable mask.
func (d *Data) RemoveSubset(s *Subset) error {
	if s == nil {
		return ErrNilSubset
	}

	d.mu.RLock()
	found := slices.Index(d.subsets, s) >= 0
	h := d.hub
	d.mu.RUnlock()

	if !found {
		return ErrSubsetNotFound
	}

	var err error
	if h != nil {
		err = h.Broadcast(message.NewSubsetDeleteMessage(s))
	}

	d.mu.Lock()
	// Handlers may have changed the list; look the subset up again.
	if i := slices.Index(d.subsets, s); i >= 0 {
		d.subsets = slices.Delete(d.subsets, i, i+1)
	}
	if d.activeSubset == s {
		d.activeSubset = nil
	}
	d.mu.Unlock()

	s.mu.Lock()
	s.status = SubsetRemoved
	s.mu.Unlock()

	return err
}

// Subsets returns the attached subsets in insertion order.
func (d *Data) Subsets() []*Subset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.subsets)
}

// HasSubset returns true if s is attached to d.
func (d *Data) HasSubset(s *Subset) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Contains(d.subsets, s)
}

// ActiveSubset returns the subset designated for editing, or nil.
func (d *Data) ActiveSubset() *Subset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.activeSubset
}

// SetActiveSubset designates s for editing. s must be attached to d;
// nil clears the designation.
func (d *Data) SetActiveSubset(s *Subset) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s != nil && !slices.Contains(d.subsets, s) {
		if s.data != d {
			return ErrForeignSubset
		}
		return ErrSubsetNotFound
	}
	d.activeSubset = s
	return nil
}

// nextSubsetNumber returns the 1-based sequence number for a new subset.
func (d *Data) nextSubsetNumber() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subsetSeq++
	return d.subsetSeq
}

// String returns a summary of dimensions, shape and components.
func (d *Data) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	dims := make([]string, len(d.shape))
	for i, n := range d.shape {
		dims[i] = strconv.Itoa(n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Number of dimensions: %d\n", len(d.shape))
	fmt.Fprintf(&b, "Shape: %s\n", strings.Join(dims, " x "))
	b.WriteString("Components:")
	for _, name := range d.order {
		fmt.Fprintf(&b, "\n * %s", name)
	}
	return b.String()
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func sameHub(a, b Broadcaster) bool {
	if isNil(b) {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

var _ message.Sender = (*Data)(nil)
