package booking

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servitech/dispatch-client/models"
	"github.com/servitech/dispatch-client/session"
)

// AppointmentDuration is the default length of a scheduled slot.
const AppointmentDuration = 2 * time.Hour

// State tracks a single booking attempt.
type State int

const (
	StateIdle State = iota
	StateClientsLoading
	StateClientResolved
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClientsLoading:
		return "clients_loading"
	case StateClientResolved:
		return "client_resolved"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// API is the slice of the dispatch client the reconciler needs.
type API interface {
	ListClientes(ctx context.Context) ([]models.Cliente, error)
	ListTecnicos(ctx context.Context) ([]models.Tecnico, error)
	CreateServicio(ctx context.Context, servicio models.Servicio) (*models.Servicio, error)
	CreateAgenda(ctx context.Context, agenda models.Agenda) (*models.Agenda, error)
}

// Request is one booking attempt. TecnicoID and Inicio are genuinely
// optional and travel as pointers; a nil Inicio means "pending request,
// no slot" and a nil TecnicoID means "any technician".
type Request struct {
	ClienteID   *uint
	TecnicoID   *uint
	Descripcion string
	Inicio      *time.Time
}

// Result is the created record: exactly one of Agenda or Servicio is set.
type Result struct {
	Agenda   *models.Agenda
	Servicio *models.Servicio
}

// Reconciler turns a booking request into either a schedule slot with an
// embedded service ticket or a bare pending ticket. One attempt at a time.
type Reconciler struct {
	api API
	log *slog.Logger

	mu    sync.Mutex
	state State
}

func NewReconciler(api API, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{api: api, log: logger.With("component", "booking")}
}

// State returns the current attempt state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Book runs one booking attempt for the given session. Validation and
// client resolution happen before anything is written, so a failure there
// leaves zero records behind and the caller's input intact.
func (r *Reconciler) Book(ctx context.Context, sess *session.Session, req Request) (*Result, error) {
	r.mu.Lock()
	if r.state == StateSubmitting {
		r.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	r.state = StateClientsLoading
	r.mu.Unlock()

	log := r.log.With("attempt", uuid.NewString(), "role", sess.Role)

	if strings.TrimSpace(req.Descripcion) == "" {
		return r.fail(log, &ValidationError{Field: "descripcionProblema"})
	}

	clientes, err := r.api.ListClientes(ctx)
	if err != nil {
		return r.fail(log, err)
	}

	clienteID, err := ResolveActingCliente(sess, req.ClienteID, clientes)
	if err != nil {
		return r.fail(log, err)
	}
	r.setState(StateClientResolved)

	tecnicoID, err := r.resolveTecnico(ctx, sess, req.TecnicoID)
	if err != nil {
		return r.fail(log, err)
	}

	r.setState(StateSubmitting)

	servicio := models.Servicio{
		DescripcionProblema: strings.TrimSpace(req.Descripcion),
		Estado:              servicioEstadoFor(tecnicoID),
		Cliente:             models.ClienteRef(clienteID),
	}
	if tecnicoID != nil {
		servicio.Tecnico = models.TecnicoRef(*tecnicoID)
	}

	if req.Inicio == nil {
		created, err := r.api.CreateServicio(ctx, servicio)
		if err != nil {
			return r.fail(log, err)
		}
		r.setState(StateSucceeded)
		log.Info("pending service request created", "servicio", created.ID, "cliente", clienteID)
		return &Result{Servicio: created}, nil
	}

	start, end := ComputeWindow(*req.Inicio)
	agenda := models.Agenda{
		FechaHoraInicio: models.NewLocalTime(start),
		FechaHoraFin:    models.NewLocalTime(end),
		Estado:          models.AgendaReservado,
		Servicio:        &servicio,
	}
	if tecnicoID != nil {
		agenda.Tecnico = models.TecnicoRef(*tecnicoID)
	}

	created, err := r.api.CreateAgenda(ctx, agenda)
	if err != nil {
		return r.fail(log, err)
	}
	r.setState(StateSucceeded)
	log.Info("appointment booked", "agenda", created.ID, "cliente", clienteID, "start", start)
	return &Result{Agenda: created}, nil
}

func (r *Reconciler) fail(log *slog.Logger, err error) (*Result, error) {
	r.setState(StateFailed)
	log.Warn("booking attempt failed", "error", err)
	return nil, err
}

// resolveTecnico applies the self-assignment policy: a technician actor
// always books their own calendar, matched by session email against the
// directory. Any explicit selection from them is overridden. Other roles
// keep their selection, nil included.
func (r *Reconciler) resolveTecnico(ctx context.Context, sess *session.Session, explicit *uint) (*uint, error) {
	if !sess.IsTecnico() {
		return explicit, nil
	}

	tecnicos, err := r.api.ListTecnicos(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tecnicos {
		if models.EmailsMatch(t.Email, sess.Username) {
			id := t.ID
			return &id, nil
		}
	}
	// No directory profile for this technician; keep the selection rather
	// than strand the ticket.
	return explicit, nil
}

// ResolveActingCliente determines which client the booking belongs to. A
// client-role session may only resolve to its own profile, matched by
// email; admins and technicians must name the client explicitly.
func ResolveActingCliente(sess *session.Session, explicit *uint, directory []models.Cliente) (uint, error) {
	switch sess.Role {
	case models.RoleCliente:
		for _, c := range directory {
			if models.EmailsMatch(c.Email, sess.Username) {
				return c.ID, nil
			}
		}
		return 0, &ClientProfileNotFoundError{Email: sess.Username}
	case models.RoleAdmin, models.RoleTecnico:
		if explicit == nil {
			return 0, &ValidationError{Field: "cliente"}
		}
		return *explicit, nil
	default:
		// Unreachable: NormalizeRole never yields anything else.
		return 0, &ValidationError{Field: "role"}
	}
}

// ComputeWindow derives the slot end from its start using calendar
// arithmetic, so day, month and year boundaries roll over correctly.
func ComputeWindow(start time.Time) (time.Time, time.Time) {
	return start, start.Add(AppointmentDuration)
}

func servicioEstadoFor(tecnicoID *uint) models.ServicioEstado {
	if tecnicoID != nil {
		return models.ServicioAsignado
	}
	return models.ServicioPendiente
}