package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servitech/dispatch-client/dispatch"
	"github.com/servitech/dispatch-client/models"
	"github.com/servitech/dispatch-client/session"
)

type fakeAPI struct {
	clientes []models.Cliente
	tecnicos []models.Tecnico

	listClientesErr error
	createErr       error

	createdServicio *models.Servicio
	createdAgenda   *models.Agenda
	servicioCalls   int
	agendaCalls     int

	block chan struct{} // when non-nil, creation calls wait on it
}

func (f *fakeAPI) ListClientes(context.Context) ([]models.Cliente, error) {
	return f.clientes, f.listClientesErr
}

func (f *fakeAPI) ListTecnicos(context.Context) ([]models.Tecnico, error) {
	return f.tecnicos, nil
}

func (f *fakeAPI) CreateServicio(_ context.Context, servicio models.Servicio) (*models.Servicio, error) {
	if f.block != nil {
		<-f.block
	}
	f.servicioCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	servicio.ID = 101
	f.createdServicio = &servicio
	return &servicio, nil
}

func (f *fakeAPI) CreateAgenda(_ context.Context, agenda models.Agenda) (*models.Agenda, error) {
	if f.block != nil {
		<-f.block
	}
	f.agendaCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	agenda.ID = 202
	f.createdAgenda = &agenda
	return &agenda, nil
}

func ptr(v uint) *uint { return &v }

func adminSession() *session.Session {
	return &session.Session{Username: "admin@x.com", Role: models.RoleAdmin}
}

func TestComputeWindowRollsOverMonthBoundary(t *testing.T) {
	start := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	gotStart, gotEnd := ComputeWindow(start)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC), gotEnd)
}

func TestComputeWindowRollsOverYearBoundary(t *testing.T) {
	start := time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC)
	_, end := ComputeWindow(start)
	assert.Equal(t, time.Date(2025, 1, 1, 1, 30, 0, 0, time.UTC), end)
}

func TestBookAdminWithTechnicianAndSlot(t *testing.T) {
	api := &fakeAPI{clientes: []models.Cliente{{ID: 7, Email: "c7@x.com"}}}
	r := NewReconciler(api, nil)

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	result, err := r.Book(context.Background(), adminSession(), Request{
		ClienteID:   ptr(7),
		TecnicoID:   ptr(3),
		Descripcion: "no enciende",
		Inicio:      &start,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Agenda)
	assert.Nil(t, result.Servicio)
	assert.Equal(t, StateSucceeded, r.State())

	agenda := api.createdAgenda
	require.NotNil(t, agenda)
	assert.Equal(t, start, agenda.FechaHoraInicio.Time)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), agenda.FechaHoraFin.Time)
	assert.Equal(t, models.AgendaReservado, agenda.Estado)
	require.NotNil(t, agenda.Tecnico)
	assert.Equal(t, uint(3), agenda.Tecnico.ID)

	servicio := agenda.Servicio
	require.NotNil(t, servicio)
	assert.Equal(t, "no enciende", servicio.DescripcionProblema)
	assert.Equal(t, models.ServicioAsignado, servicio.Estado)
	assert.Equal(t, uint(7), servicio.Cliente.ID)
	assert.Equal(t, uint(3), servicio.Tecnico.ID)

	assert.Equal(t, 0, api.servicioCalls, "slot booking must not also create a bare ticket")
}

func TestBookClienteSelfMatchPendingRequest(t *testing.T) {
	api := &fakeAPI{clientes: []models.Cliente{
		{ID: 3, Email: "otro@x.com"},
		{ID: 5, Email: " Ana@X.com "},
	}}
	r := NewReconciler(api, nil)

	sess := &session.Session{Username: "ana@x.com", Role: models.RoleCliente}
	result, err := r.Book(context.Background(), sess, Request{Descripcion: "fuga de agua"})
	require.NoError(t, err)
	require.NotNil(t, result.Servicio)
	assert.Nil(t, result.Agenda)

	servicio := api.createdServicio
	require.NotNil(t, servicio)
	assert.Equal(t, uint(5), servicio.Cliente.ID, "email match is case- and whitespace-insensitive")
	assert.Equal(t, models.ServicioPendiente, servicio.Estado)
	assert.Nil(t, servicio.Tecnico)
	assert.Equal(t, 0, api.agendaCalls)
}

func TestBookClienteWithoutProfileMakesNoWrites(t *testing.T) {
	api := &fakeAPI{clientes: []models.Cliente{{ID: 3, Email: "otro@x.com"}}}
	r := NewReconciler(api, nil)

	sess := &session.Session{Username: "ana@x.com", Role: models.RoleCliente}
	_, err := r.Book(context.Background(), sess, Request{Descripcion: "fuga de agua"})

	var notFound *ClientProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ana@x.com", notFound.Email)
	assert.Equal(t, 0, api.servicioCalls)
	assert.Equal(t, 0, api.agendaCalls)
	assert.Equal(t, StateFailed, r.State())
}

func TestBookEmptyDescriptionFailsBeforeAnyCall(t *testing.T) {
	api := &fakeAPI{clientes: []models.Cliente{{ID: 7, Email: "c7@x.com"}}}
	r := NewReconciler(api, nil)

	_, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "   "})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "descripcionProblema", validation.Field)
	assert.Equal(t, 0, api.servicioCalls)
	assert.Equal(t, 0, api.agendaCalls)
}

func TestBookAdminWithoutClientFails(t *testing.T) {
	api := &fakeAPI{clientes: []models.Cliente{{ID: 7, Email: "c7@x.com"}}}
	r := NewReconciler(api, nil)

	_, err := r.Book(context.Background(), adminSession(), Request{Descripcion: "no enciende"})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "cliente", validation.Field)
}

func TestBookTecnicoIsForceAssignedToOwnProfile(t *testing.T) {
	api := &fakeAPI{
		clientes: []models.Cliente{{ID: 7, Email: "c7@x.com"}},
		tecnicos: []models.Tecnico{
			{ID: 4, Email: "otra@x.com"},
			{ID: 9, Email: "Bob@X.com"},
		},
	}
	r := NewReconciler(api, nil)

	sess := &session.Session{Username: "bob@x.com", Role: models.RoleTecnico}
	// An explicit selection from a technician actor is overridden.
	_, err := r.Book(context.Background(), sess, Request{
		ClienteID:   ptr(7),
		TecnicoID:   ptr(4),
		Descripcion: "revisión de caldera",
	})
	require.NoError(t, err)

	servicio := api.createdServicio
	require.NotNil(t, servicio)
	require.NotNil(t, servicio.Tecnico)
	assert.Equal(t, uint(9), servicio.Tecnico.ID)
	assert.Equal(t, models.ServicioAsignado, servicio.Estado)
}

func TestBookSurfacesDirectoryFetchFailure(t *testing.T) {
	api := &fakeAPI{listClientesErr: &dispatch.TransportError{Op: "GET /clientes", Err: errors.New("connection refused")}}
	r := NewReconciler(api, nil)

	_, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "no enciende"})
	require.Error(t, err)
	assert.True(t, dispatch.IsRetryable(err))
	assert.Equal(t, StateFailed, r.State())
}

func TestBookSubmissionFailureIsRetryable(t *testing.T) {
	api := &fakeAPI{
		clientes:  []models.Cliente{{ID: 7, Email: "c7@x.com"}},
		createErr: &dispatch.APIError{Op: "POST /servicios", StatusCode: 503, Body: "unavailable"},
	}
	r := NewReconciler(api, nil)

	_, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "no enciende"})
	require.Error(t, err)
	assert.True(t, dispatch.IsRetryable(err))
	assert.Equal(t, StateFailed, r.State())

	// The same request can be retried after a failure.
	api.createErr = nil
	result, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "no enciende"})
	require.NoError(t, err)
	assert.NotNil(t, result.Servicio)
	assert.Equal(t, StateSucceeded, r.State())
}

func TestBookRejectsConcurrentSubmission(t *testing.T) {
	api := &fakeAPI{
		clientes: []models.Cliente{{ID: 7, Email: "c7@x.com"}},
		block:    make(chan struct{}),
	}
	r := NewReconciler(api, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "no enciende"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		return r.State() == StateSubmitting
	}, time.Second, time.Millisecond)

	_, err := r.Book(context.Background(), adminSession(), Request{ClienteID: ptr(7), Descripcion: "no enciende"})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(api.block)
	require.NoError(t, <-done)
}
