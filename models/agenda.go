package models

// AgendaEstado is the status of a schedule slot.
type AgendaEstado string

const (
	AgendaReservado  AgendaEstado = "RESERVADO"
	AgendaPendiente  AgendaEstado = "PENDIENTE"
	AgendaDisponible AgendaEstado = "DISPONIBLE"
	AgendaCancelado  AgendaEstado = "CANCELADO"
)

// Agenda is a scheduled appointment slot linking a technician, a time
// window and, on creation, an embedded service ticket.
type Agenda struct {
	ID              uint         `json:"id,omitempty"`
	FechaHoraInicio LocalTime    `json:"fechaHoraInicio"`
	FechaHoraFin    LocalTime    `json:"fechaHoraFin"`
	Estado          AgendaEstado `json:"estado,omitempty"`
	Tecnico         *Tecnico     `json:"tecnico,omitempty"`
	Servicio        *Servicio    `json:"servicio,omitempty"`
}
