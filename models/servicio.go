package models

import (
	"fmt"
	"strings"
)

// ServicioEstado is the lifecycle status of a service ticket.
type ServicioEstado string

const (
	ServicioPendiente  ServicioEstado = "PENDIENTE"
	ServicioAsignado   ServicioEstado = "ASIGNADO"
	ServicioEnProceso  ServicioEstado = "EN_PROCESO"
	ServicioCompletado ServicioEstado = "COMPLETADO"
)

// Servicio is a customer-reported problem record with a lifecycle status.
type Servicio struct {
	ID                  uint           `json:"id,omitempty"`
	DescripcionProblema string         `json:"descripcionProblema,omitempty"`
	Estado              ServicioEstado `json:"estado,omitempty"`
	FechaSolicitud      *LocalTime     `json:"fechaSolicitud,omitempty"`
	Cliente             *Cliente       `json:"cliente,omitempty"`
	Tecnico             *Tecnico       `json:"tecnico,omitempty"`
}

// Transition validates a status change before it is sent to the API and
// applies it on success. Tickets move PENDIENTE/ASIGNADO -> EN_PROCESO ->
// COMPLETADO; completed tickets are frozen.
func (s *Servicio) Transition(to ServicioEstado) error {
	switch s.Estado {
	case ServicioPendiente:
		if to != ServicioAsignado && to != ServicioEnProceso {
			return fmt.Errorf("invalid transition from %s to %s", s.Estado, to)
		}
	case ServicioAsignado:
		if to != ServicioEnProceso {
			return fmt.Errorf("invalid transition from %s to %s", s.Estado, to)
		}
	case ServicioEnProceso:
		if to != ServicioCompletado {
			return fmt.Errorf("invalid transition from %s to %s", s.Estado, to)
		}
	case ServicioCompletado:
		return fmt.Errorf("no transitions allowed from %s", s.Estado)
	}

	s.Estado = to
	return nil
}

// ParseServicioEstado validates a user-supplied status name.
func ParseServicioEstado(raw string) (ServicioEstado, error) {
	estado := ServicioEstado(strings.ToUpper(strings.TrimSpace(raw)))
	switch estado {
	case ServicioPendiente, ServicioAsignado, ServicioEnProceso, ServicioCompletado:
		return estado, nil
	default:
		return "", fmt.Errorf("unknown service status %q", raw)
	}
}

// FilterServiciosByClienteEmail keeps the tickets belonging to the client
// with the given email.
func FilterServiciosByClienteEmail(servicios []Servicio, email string) []Servicio {
	var own []Servicio
	for _, s := range servicios {
		if s.Cliente != nil && EmailsMatch(s.Cliente.Email, email) {
			own = append(own, s)
		}
	}
	return own
}

// FilterServiciosByTecnicoEmail keeps the tickets assigned to the
// technician with the given email.
func FilterServiciosByTecnicoEmail(servicios []Servicio, email string) []Servicio {
	var own []Servicio
	for _, s := range servicios {
		if s.Tecnico != nil && EmailsMatch(s.Tecnico.Email, email) {
			own = append(own, s)
		}
	}
	return own
}
