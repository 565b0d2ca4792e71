package loader

import (
	"errors"
	"fmt"

	"github.com/cmagness/glue/pkg/model"
)

// Builder errors.
var (
	ErrNoColumns = errors.New("no columns")
	ErrNoTree    = errors.New("tree is nil")
)

// Names of the pixel coordinate components added to 2-D gridded data.
const (
	ComponentXPix = "XPIX"
	ComponentYPix = "YPIX"
)

// Column is a named array handed over by a reader.
type Column struct {
	Name   string
	Values []float64
	Units  string
}

// NewTabular builds 1-D data with one component per column.
func NewTabular(label string, columns []Column) (*model.Data, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}

	d := model.NewData(label)
	for _, col := range columns {
		c, err := model.NewComponent(col.Values, []int{len(col.Values)}, col.Units)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if err := d.AddComponent(col.Name, c); err != nil {
			return nil, err
		}
	}
	return d, d.Validate()
}

// NewGridded builds n-dimensional data from arrays sharing shape. For 2-D data
// the pixel coordinate components XPIX and YPIX are added.
func NewGridded(label string, shape []int, arrays []Column) (*model.Data, error) {
	if len(arrays) == 0 {
		return nil, ErrNoColumns
	}

	d := model.NewData(label)
	for _, arr := range arrays {
		c, err := model.NewComponent(arr.Values, shape, arr.Units)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", arr.Name, err)
		}
		if err := d.AddComponent(arr.Name, c); err != nil {
			return nil, err
		}
	}

	if len(shape) == 2 {
		if err := addPixelComponents(d, shape[0], shape[1]); err != nil {
			return nil, err
		}
	}
	return d, d.Validate()
}

// addPixelComponents adds the column (XPIX) and row (YPIX) index of every
// element of a rows x cols grid.
func addPixelComponents(d *model.Data, rows, cols int) error {
	x := make([]float64, 0, rows*cols)
	y := make([]float64, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			x = append(x, float64(c))
			y = append(y, float64(r))
		}
	}

	shape := []int{rows, cols}
	xc, err := model.NewComponent(x, shape, "")
	if err != nil {
		return err
	}
	yc, err := model.NewComponent(y, shape, "")
	if err != nil {
		return err
	}
	if err := d.AddComponent(ComponentXPix, xc); err != nil {
		return err
	}
	return d.AddComponent(ComponentYPix, yc)
}

// NewAMR builds adaptive mesh data described by tree. Cell arrays, if any,
// are added as 1-D components with one value per cell.
func NewAMR(label string, tree *model.Tree, cells []Column) (*model.Data, error) {
	if tree == nil {
		return nil, ErrNoTree
	}

	d := model.NewData(label)
	d.SetTree(tree)
	for _, col := range cells {
		c, err := model.NewComponent(col.Values, []int{len(col.Values)}, col.Units)
		if err != nil {
			return nil, fmt.Errorf("cell array %q: %w", col.Name, err)
		}
		if err := d.AddComponent(col.Name, c); err != nil {
			return nil, err
		}
	}
	return d, d.Validate()
}
