package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmagness/glue/pkg/model"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		format   string
		want     string
		wantErr  bool
	}{
		{"image.fits", "auto", FormatFITS, false},
		{"IMAGE.FIT", "auto", FormatFITS, false},
		{"image.fits.gz", "auto", FormatFITS, false},
		{"cube.h5", "auto", FormatHDF5, false},
		{"cube.hdf", "", FormatHDF5, false},
		{"/data/run.1/cube.hdf5.gz", "auto", FormatHDF5, false},
		{"cube.dat", "hdf5", FormatHDF5, false},
		{"anything", "FIT", FormatFITS, false},
		{"table.csv", "auto", "", true},
		{"noext", "auto", "", true},
		{"image.fits", "png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.format, func(t *testing.T) {
			got, err := DetectFormat(tt.filename, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTabular(t *testing.T) {
	d, err := NewTabular("catalog", []Column{
		{Name: "ra", Values: []float64{10, 11, 12}, Units: "deg"},
		{Name: "dec", Values: []float64{-5, -6, -7}, Units: "deg"},
	})
	require.NoError(t, err)

	assert.Equal(t, "catalog", d.Label())
	assert.Equal(t, []int{3}, d.Shape())
	assert.Equal(t, 1, d.NDim())
	assert.Equal(t, []string{"ra", "dec"}, d.ComponentNames())

	c, err := d.Component("ra")
	require.NoError(t, err)
	assert.Equal(t, "deg", c.Units())
}

func TestNewTabularErrors(t *testing.T) {
	_, err := NewTabular("empty", nil)
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = NewTabular("ragged", []Column{
		{Name: "a", Values: []float64{1, 2}},
		{Name: "b", Values: []float64{1, 2, 3}},
	})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = NewTabular("dup", []Column{
		{Name: "a", Values: []float64{1}},
		{Name: "a", Values: []float64{2}},
	})
	assert.ErrorIs(t, err, model.ErrDuplicateComponent)
}

func TestNewGridded2DAddsPixelComponents(t *testing.T) {
	d, err := NewGridded("image", []int{2, 3}, []Column{
		{Name: "PRIMARY", Values: []float64{1, 2, 3, 4, 5, 6}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"PRIMARY", ComponentXPix, ComponentYPix}, d.ComponentNames())

	x, err := d.Get(ComponentXPix)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2}, x)

	y, err := d.Get(ComponentYPix)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, y)
}

func TestNewGridded3D(t *testing.T) {
	d, err := NewGridded("cube", []int{2, 2, 2}, []Column{
		{Name: "flux", Values: make([]float64, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, d.NDim())
	assert.Equal(t, []string{"flux"}, d.ComponentNames())

	_, err = NewGridded("bad", []int{2, 2}, []Column{{Name: "flux", Values: make([]float64, 3)}})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestNewAMR(t *testing.T) {
	tree := &model.Tree{Root: &model.TreeNode{Children: []*model.TreeNode{{ID: 1, Level: 1}}}}

	d, err := NewAMR("sim", tree, []Column{{Name: "density", Values: []float64{1, 2}}})
	require.NoError(t, err)
	assert.Same(t, tree, d.Tree())
	assert.Equal(t, []int{2}, d.Shape())

	_, err = NewAMR("sim", nil, nil)
	assert.ErrorIs(t, err, ErrNoTree)
}

type scaledCoords struct{ model.IdentityCoordinates }

func TestRegistryLoadGridded(t *testing.T) {
	r := NewRegistry(nil)
	var gotFile string
	require.NoError(t, r.Register("fit", ArrayReaderFunc(func(ctx context.Context, filename string) (*Arrays, error) {
		gotFile = filename
		return &Arrays{
			Shape:  []int{1, 2},
			Arrays: []Column{{Name: "PRIMARY", Values: []float64{7, 8}}},
			Coords: scaledCoords{},
		}, nil
	})))

	assert.Equal(t, []string{FormatFITS}, r.Formats())

	d, err := r.LoadGridded(context.Background(), "m31.fits.gz", FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, "m31.fits.gz", gotFile)
	assert.Equal(t, "m31.fits.gz", d.Label())
	assert.IsType(t, scaledCoords{}, d.Coords())
	assert.Len(t, d.ComponentNames(), 3)
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry(nil)

	assert.ErrorIs(t, r.Register("fits", nil), ErrNilReader)
	assert.ErrorIs(t, r.Register("png", ArrayReaderFunc(nil)), ErrUnknownFormat)

	_, err := r.LoadGridded(context.Background(), "cube.h5", FormatAuto)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	boom := errors.New("boom")
	require.NoError(t, r.Register(FormatHDF5, ArrayReaderFunc(func(context.Context, string) (*Arrays, error) {
		return nil, boom
	})))
	_, err = r.LoadGridded(context.Background(), "cube.h5", FormatAuto)
	assert.ErrorIs(t, err, boom)
}
