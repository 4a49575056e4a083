package models

// Tecnico is a technician profile as served by /tecnicos. Disponible is
// a pointer so an explicit false reaches the API on update while
// reference-only payloads omit the field entirely.
type Tecnico struct {
	ID           uint   `json:"id,omitempty"`
	Nombre       string `json:"nombre,omitempty"`
	Apellido     string `json:"apellido,omitempty"`
	Email        string `json:"email,omitempty"`
	Telefono     string `json:"telefono,omitempty"`
	Especialidad string `json:"especialidad,omitempty"`
	Foto         string `json:"foto,omitempty"`
	Disponible   *bool  `json:"disponible,omitempty"`
}

// EstaDisponible reports availability, treating an absent flag as not
// available.
func (t *Tecnico) EstaDisponible() bool {
	return t.Disponible != nil && *t.Disponible
}

// TecnicoRef returns a reference-only Tecnico for creation payloads.
func TecnicoRef(id uint) *Tecnico {
	return &Tecnico{ID: id}
}
