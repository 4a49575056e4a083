package models

import "strings"

// EmailsMatch compares two login emails the way the directories are
// searched: surrounding whitespace trimmed, case ignored.
func EmailsMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Cliente is a customer profile as served by /clientes. The API owns the
// record; this client only reads it and references it by id.
type Cliente struct {
	ID        uint   `json:"id,omitempty"`
	Nombre    string `json:"nombre,omitempty"`
	Apellido  string `json:"apellido,omitempty"`
	Email     string `json:"email,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Direccion string `json:"direccion,omitempty"`
}

// ClienteRef returns a reference-only Cliente suitable for embedding in a
// creation payload, carrying just the id.
func ClienteRef(id uint) *Cliente {
	return &Cliente{ID: id}
}
