package model

import "slices"

// Coordinates converts between pixel and world coordinates.
// Implementations are supplied by loaders; Data only holds the reference.
type Coordinates interface {
	PixelToWorld(pixel ...float64) []float64
	WorldToPixel(world ...float64) []float64
}

// IdentityCoordinates maps every pixel coordinate to itself.
type IdentityCoordinates struct{}

// PixelToWorld returns a copy of pixel.
func (IdentityCoordinates) PixelToWorld(pixel ...float64) []float64 {
	return slices.Clone(pixel)
}

// WorldToPixel returns a copy of world.
func (IdentityCoordinates) WorldToPixel(world ...float64) []float64 {
	return slices.Clone(world)
}

var _ Coordinates = IdentityCoordinates{}
