package bmd

// Bone holds bind-pose data for one bone in the skeleton hierarchy, taken
// from the first key of the first action.
type Bone struct {
	Name         string
	Parent       int
	IsDummy      bool
	BindPosition [3]float64
	BindRotation [3]float64 // Euler XYZ radians
}

// Model is the part of a BMD file the skeleton importer needs.
type Model struct {
	Name    string
	Version byte
	Bones   []Bone
}
