// Package loader defines the boundary between file readers and the data model.
//
// Readers for concrete formats (FITS, HDF5, tables) live outside this module.
// They hand over raw arrays, and the builders here turn those into
// model.Data values that satisfy the model invariants: unique component
// names, one shared shape, and for 2-D gridded data the XPIX/YPIX pixel
// coordinate components.
package loader
