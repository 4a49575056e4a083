package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/servitech/dispatch-client/booking"
	"github.com/servitech/dispatch-client/config"
	"github.com/servitech/dispatch-client/dispatch"
	"github.com/servitech/dispatch-client/models"
	"github.com/servitech/dispatch-client/session"
)

const inicioLayout = "2006-01-02T15:04"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	var store session.Store
	if cfg.UseRedis() {
		redisStore, err := session.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "redis error:", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		store = session.NewFileStore(cfg.SessionFile)
	}

	client := dispatch.New(cfg.APIBaseURL, logger)
	client.SetTimeout(cfg.HTTPTimeout)
	resolver := session.NewResolver(client, store, nil, logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var cmdErr error
	switch cmd {
	case "login":
		cmdErr = runLogin(ctx, resolver, args)
	case "logout":
		resolver.Logout()
		fmt.Println("Session cleared.")
	case "whoami":
		cmdErr = runWhoami(resolver)
	case "book":
		cmdErr = runBook(ctx, resolver, client, logger, args)
	case "clientes":
		cmdErr = withSession(resolver, client, func(*session.Session) error { return runClientes(ctx, client) })
	case "tecnicos":
		cmdErr = withSession(resolver, client, func(*session.Session) error { return runTecnicos(ctx, client) })
	case "agenda":
		cmdErr = withSession(resolver, client, func(*session.Session) error { return runAgenda(ctx, client) })
	case "servicios":
		cmdErr = withSession(resolver, client, func(sess *session.Session) error { return runServicios(ctx, client, sess, args) })
	case "garantias":
		cmdErr = withSession(resolver, client, func(sess *session.Session) error { return runGarantias(ctx, client, sess) })
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, "error:", cmdErr)
		if dispatch.IsRetryable(cmdErr) {
			fmt.Fprintln(os.Stderr, "The API was unreachable or failed; you can retry the same command.")
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dispatch-client <command> [flags]

commands:
  login     -u <user> -p <password>
  logout
  whoami
  book      [-cliente <id>] [-tecnico <id>] -desc <text> [-inicio 2006-01-02T15:04]
  clientes
  tecnicos
  agenda
  servicios [-id <id> -estado PENDIENTE|ASIGNADO|EN_PROCESO|COMPLETADO]
  garantias`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// withSession restores the persisted session and installs its token
// before running fn.
func withSession(resolver *session.Resolver, client *dispatch.Client, fn func(*session.Session) error) error {
	sess, err := resolver.Restore()
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no active session, run login first")
	}
	client.SetToken(sess.Token)
	return fn(sess)
}

func runLogin(ctx context.Context, resolver *session.Resolver, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("u", "", "username or email")
	password := fs.String("p", "", "password")
	fs.Parse(args)

	if *user == "" || *password == "" {
		return fmt.Errorf("login requires -u and -p")
	}

	sess, err := resolver.Login(ctx, *user, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s), session valid until %s.\n",
		sess.Username, sess.Role, sess.ExpiresAt.Format(time.RFC1123))
	return nil
}

func runWhoami(resolver *session.Resolver) error {
	sess, err := resolver.Restore()
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("No active session.")
		return nil
	}
	fmt.Printf("%s (%s), expires %s\n", sess.Username, sess.Role, sess.ExpiresAt.Format(time.RFC1123))
	return nil
}

func runBook(ctx context.Context, resolver *session.Resolver, client *dispatch.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	clienteID := fs.Uint("cliente", 0, "client id (admins and technicians)")
	tecnicoID := fs.Uint("tecnico", 0, "technician id, 0 for any")
	desc := fs.String("desc", "", "problem description")
	inicio := fs.String("inicio", "", "start time, e.g. 2024-06-01T10:00; empty for a pending request")
	fs.Parse(args)

	sess, err := resolver.Restore()
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no active session, run login first")
	}
	client.SetToken(sess.Token)

	req := booking.Request{Descripcion: *desc}
	if *clienteID != 0 {
		id := *clienteID
		req.ClienteID = &id
	}
	if *tecnicoID != 0 {
		id := *tecnicoID
		req.TecnicoID = &id
	}
	if *inicio != "" {
		start, err := time.Parse(inicioLayout, *inicio)
		if err != nil {
			return fmt.Errorf("invalid -inicio: %w", err)
		}
		req.Inicio = &start
	}

	reconciler := booking.NewReconciler(client, logger)
	result, err := reconciler.Book(ctx, sess, req)
	if err != nil {
		return err
	}

	if result.Agenda != nil {
		fmt.Printf("Appointment #%d booked: %s to %s\n", result.Agenda.ID,
			result.Agenda.FechaHoraInicio.Format(inicioLayout),
			result.Agenda.FechaHoraFin.Format(inicioLayout))
	} else {
		fmt.Printf("Service request #%d created with status %s; a technician will be assigned.\n",
			result.Servicio.ID, result.Servicio.Estado)
	}
	return nil
}

func runClientes(ctx context.Context, client *dispatch.Client) error {
	clientes, err := client.ListClientes(ctx)
	if err != nil {
		return err
	}
	for _, c := range clientes {
		fmt.Printf("#%d\t%s %s\t%s\t%s\n", c.ID, c.Nombre, c.Apellido, c.Email, c.Telefono)
	}
	return nil
}

func runTecnicos(ctx context.Context, client *dispatch.Client) error {
	tecnicos, err := client.ListTecnicos(ctx)
	if err != nil {
		return err
	}
	for _, t := range tecnicos {
		disponible := "no disponible"
		if t.EstaDisponible() {
			disponible = "disponible"
		}
		fmt.Printf("#%d\t%s %s\t%s\t%s\n", t.ID, t.Nombre, t.Apellido, t.Especialidad, disponible)
	}
	return nil
}

func runAgenda(ctx context.Context, client *dispatch.Client) error {
	citas, err := client.ListAgenda(ctx)
	if err != nil {
		return err
	}
	for _, a := range citas {
		tecnico := "sin asignar"
		if a.Tecnico != nil {
			tecnico = fmt.Sprintf("%s %s", a.Tecnico.Nombre, a.Tecnico.Apellido)
		}
		desc := ""
		if a.Servicio != nil {
			desc = a.Servicio.DescripcionProblema
		}
		fmt.Printf("#%d\t%s - %s\t%s\t%s\t%s\n", a.ID,
			a.FechaHoraInicio.Format(inicioLayout), a.FechaHoraFin.Format(inicioLayout),
			a.Estado, tecnico, desc)
	}
	return nil
}

// runServicios lists service tickets, scoped to the caller's own tickets
// for clients and technicians, or advances one ticket's status the way
// the technician dashboard does: validate the transition locally, then
// PUT the updated record.
func runServicios(ctx context.Context, client *dispatch.Client, sess *session.Session, args []string) error {
	fs := flag.NewFlagSet("servicios", flag.ExitOnError)
	id := fs.Uint("id", 0, "service ticket id to update")
	estado := fs.String("estado", "", "new status for -id")
	fs.Parse(args)

	if *id != 0 || *estado != "" {
		if *id == 0 || *estado == "" {
			return fmt.Errorf("updating a ticket requires both -id and -estado")
		}
		return updateServicioEstado(ctx, client, *id, *estado)
	}

	servicios, err := client.ListServicios(ctx)
	if err != nil {
		return err
	}
	switch {
	case sess.IsCliente():
		servicios = models.FilterServiciosByClienteEmail(servicios, sess.Username)
	case sess.IsTecnico():
		servicios = models.FilterServiciosByTecnicoEmail(servicios, sess.Username)
	}

	for _, s := range servicios {
		cliente := "desconocido"
		if s.Cliente != nil {
			cliente = fmt.Sprintf("%s %s", s.Cliente.Nombre, s.Cliente.Apellido)
		}
		tecnico := "sin asignar"
		if s.Tecnico != nil {
			tecnico = fmt.Sprintf("%s %s", s.Tecnico.Nombre, s.Tecnico.Apellido)
		}
		fmt.Printf("#%d\t%s\t%s\t%s\t%s\n", s.ID, s.Estado, cliente, tecnico, s.DescripcionProblema)
	}
	return nil
}

func updateServicioEstado(ctx context.Context, client *dispatch.Client, id uint, rawEstado string) error {
	estado, err := models.ParseServicioEstado(rawEstado)
	if err != nil {
		return err
	}

	servicio, err := client.GetServicio(ctx, id)
	if err != nil {
		return err
	}
	if err := servicio.Transition(estado); err != nil {
		return err
	}

	updated, err := client.UpdateServicio(ctx, id, *servicio)
	if err != nil {
		return err
	}
	fmt.Printf("Service request #%d is now %s.\n", updated.ID, updated.Estado)
	return nil
}

func runGarantias(ctx context.Context, client *dispatch.Client, sess *session.Session) error {
	garantias, err := client.ListGarantias(ctx)
	if err != nil {
		return err
	}
	if sess.IsCliente() {
		garantias = models.FilterGarantiasByClienteEmail(garantias, sess.Username)
	}
	for _, g := range garantias {
		cliente := "desconocido"
		if g.Servicio != nil && g.Servicio.Cliente != nil {
			cliente = fmt.Sprintf("%s %s", g.Servicio.Cliente.Nombre, g.Servicio.Cliente.Apellido)
		}
		fmt.Printf("#%d\t%s\t%s\n", g.ID, cliente, g.Descripcion)
	}
	return nil
}
