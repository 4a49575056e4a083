package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/servitech/dispatch-client/models"
)

const defaultTimeout = 10 * time.Second

// Client talks to the dispatch REST API. It is safe for sequential use by
// a single session; the bearer token is set once after login or restore.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Client for the given API base URL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.With("component", "dispatch"),
	}
}

// SetTimeout overrides the default per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// SetToken installs the bearer token sent on every subsequent request.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The caller decides what
// to do with it; the token is not installed on the client automatically.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// --- Clientes ---

func (c *Client) ListClientes(ctx context.Context) ([]models.Cliente, error) {
	var out []models.Cliente
	if err := c.do(ctx, http.MethodGet, "/clientes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCliente(ctx context.Context, id uint) (*models.Cliente, error) {
	var out models.Cliente
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/clientes/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCliente(ctx context.Context, cliente models.Cliente) (*models.Cliente, error) {
	var out models.Cliente
	if err := c.do(ctx, http.MethodPost, "/clientes", cliente, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCliente(ctx context.Context, id uint, cliente models.Cliente) (*models.Cliente, error) {
	var out models.Cliente
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clientes/%d", id), cliente, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCliente(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/clientes/%d", id), nil, nil)
}

// --- Tecnicos ---

func (c *Client) ListTecnicos(ctx context.Context) ([]models.Tecnico, error) {
	var out []models.Tecnico
	if err := c.do(ctx, http.MethodGet, "/tecnicos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTecnico(ctx context.Context, id uint) (*models.Tecnico, error) {
	var out models.Tecnico
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tecnicos/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTecnico(ctx context.Context, tecnico models.Tecnico) (*models.Tecnico, error) {
	var out models.Tecnico
	if err := c.do(ctx, http.MethodPost, "/tecnicos", tecnico, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTecnico(ctx context.Context, id uint, tecnico models.Tecnico) (*models.Tecnico, error) {
	var out models.Tecnico
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tecnicos/%d", id), tecnico, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTecnico(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tecnicos/%d", id), nil, nil)
}

// --- Servicios ---

func (c *Client) ListServicios(ctx context.Context) ([]models.Servicio, error) {
	var out []models.Servicio
	if err := c.do(ctx, http.MethodGet, "/servicios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetServicio(ctx context.Context, id uint) (*models.Servicio, error) {
	var out models.Servicio
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/servicios/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateServicio(ctx context.Context, servicio models.Servicio) (*models.Servicio, error) {
	var out models.Servicio
	if err := c.do(ctx, http.MethodPost, "/servicios", servicio, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateServicio(ctx context.Context, id uint, servicio models.Servicio) (*models.Servicio, error) {
	var out models.Servicio
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/servicios/%d", id), servicio, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteServicio(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/servicios/%d", id), nil, nil)
}

// --- Agenda ---

func (c *Client) ListAgenda(ctx context.Context) ([]models.Agenda, error) {
	var out []models.Agenda
	if err := c.do(ctx, http.MethodGet, "/agenda", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAgenda(ctx context.Context, agenda models.Agenda) (*models.Agenda, error) {
	var out models.Agenda
	if err := c.do(ctx, http.MethodPost, "/agenda", agenda, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAgenda(ctx context.Context, id uint, agenda models.Agenda) (*models.Agenda, error) {
	var out models.Agenda
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/agenda/%d", id), agenda, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelAgenda marks a slot CANCELADO without touching the rest of the
// record.
func (c *Client) CancelAgenda(ctx context.Context, agenda models.Agenda) (*models.Agenda, error) {
	agenda.Estado = models.AgendaCancelado
	return c.UpdateAgenda(ctx, agenda.ID, agenda)
}

func (c *Client) DeleteAgenda(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/agenda/%d", id), nil, nil)
}

// --- Garantias ---

func (c *Client) ListGarantias(ctx context.Context) ([]models.Garantia, error) {
	var out []models.Garantia
	if err := c.do(ctx, http.MethodGet, "/garantias", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do executes one API call: marshals body, sets headers, classifies
// failures into TransportError or APIError and decodes into out when the
// caller wants a payload back.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Warn("api rejected request", "op", op, "status", resp.StatusCode)
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
