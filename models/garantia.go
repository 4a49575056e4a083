package models

// Garantia is a warranty attached to a completed service. The API only
// exposes reads; dashboards filter warranties by the embedded service's
// client email.
type Garantia struct {
	ID          uint       `json:"id,omitempty"`
	Descripcion string     `json:"descripcion,omitempty"`
	FechaInicio *LocalTime `json:"fechaInicio,omitempty"`
	FechaFin    *LocalTime `json:"fechaFin,omitempty"`
	Servicio    *Servicio  `json:"servicio,omitempty"`
}

// FilterGarantiasByClienteEmail keeps the warranties whose embedded
// service belongs to the client with the given email. Entries without a
// service or client are never a match.
func FilterGarantiasByClienteEmail(garantias []Garantia, email string) []Garantia {
	var own []Garantia
	for _, g := range garantias {
		if g.Servicio == nil || g.Servicio.Cliente == nil {
			continue
		}
		if EmailsMatch(g.Servicio.Cliente.Email, email) {
			own = append(own, g)
		}
	}
	return own
}
