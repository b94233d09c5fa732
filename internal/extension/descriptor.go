package extension

// Descriptor is the static identity of one extension. It never changes after
// construction.
type Descriptor struct {
	Identifier  string   `json:"identifier"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Authors     []string `json:"authors"`
	Version     string   `json:"version"`
}

// Constructed pairs a Descriptor with its live Extension. The Registry owns
// the Extension for the lifetime of the process.
type Constructed struct {
	Descriptor Descriptor
	Extension  Extension
}

// Construct pairs desc with ext. The authors slice is copied so the caller
// cannot mutate the descriptor afterwards.
func Construct(desc Descriptor, ext Extension) Constructed {
	desc.Authors = append([]string(nil), desc.Authors...)
	return Constructed{Descriptor: desc, Extension: ext}
}

func (d Descriptor) clone() Descriptor {
	d.Authors = append([]string(nil), d.Authors...)
	return d
}
