package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/rs/zerolog"
)

// authHeader nombre fijo del header de autenticación del gateway.
const authHeader = "access_token"

const maxResponseBytes = 1 << 20

// CredentialSource puerto de credenciales; *CredentialResolver lo implementa.
type CredentialSource interface {
	Resolve(ctx context.Context, env string) (*Credentials, error)
	ActiveEnvironment(ctx context.Context) (string, error)
}

// Client cliente REST del gateway de pagos. No reintenta: cada llamada es única
// y un timeout deja el estado remoto como desconocido.
type Client struct {
	creds      CredentialSource
	httpClient *http.Client
	timeout    time.Duration
	log        zerolog.Logger
}

// NewClient construye el cliente. timeout acota cada llamada individual.
func NewClient(creds CredentialSource, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{},
		timeout:    timeout,
		log:        log,
	}
}

type errorPayload struct {
	Errors []struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"errors"`
}

// ActiveEnvironment entorno que usarán las llamadas sin entorno explícito.
func (c *Client) ActiveEnvironment(ctx context.Context) (string, error) {
	return c.creds.ActiveEnvironment(ctx)
}

// Request ejecuta method sobre path (relativo a la URL base del entorno) con body serializado a JSON.
// Devuelve el status y el JSON crudo. Respuestas no-2xx se devuelven como *domain.GatewayError
// junto con el status y el cuerpo.
func (c *Client) Request(ctx context.Context, env, method, path string, body any) (int, []byte, error) {
	creds, err := c.creds.Resolve(ctx, env)
	if err != nil {
		return 0, nil, err
	}
	op := method + " " + stripQuery(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("gateway: serializar body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, creds.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway: crear request: %w", err)
	}
	req.Header.Set(authHeader, creds.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		gwErr := &domain.GatewayError{Op: op, Err: err}
		if callCtx.Err() != nil || isTimeout(err) {
			gwErr.Timeout = true
		} else {
			gwErr.Transport = true
		}
		c.log.Warn().Str("op", op).Str("env", creds.Environment).Dur("elapsed", time.Since(start)).
			Bool("timeout", gwErr.Timeout).Err(err).Msg("gateway sin respuesta")
		return 0, nil, gwErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		gwErr := &domain.GatewayError{Op: op, Status: resp.StatusCode, Err: err, Transport: true}
		if callCtx.Err() != nil {
			gwErr.Timeout, gwErr.Transport = true, false
		}
		return resp.StatusCode, nil, gwErr
	}

	c.log.Debug().Str("op", op).Str("env", creds.Environment).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("gateway")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, raw, newStatusError(op, resp.StatusCode, raw)
	}
	return resp.StatusCode, raw, nil
}

// do ejecuta Request en el entorno activo y decodifica la respuesta en out (si no es nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, raw, err := c.Request(ctx, "", method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.GatewayError{Op: method + " " + stripQuery(path), Status: http.StatusOK,
			Description: "respuesta no es JSON válido", Err: err}
	}
	return nil
}

func newStatusError(op string, status int, raw []byte) *domain.GatewayError {
	gwErr := &domain.GatewayError{Op: op, Status: status}
	var payload errorPayload
	if json.Unmarshal(raw, &payload) == nil && len(payload.Errors) > 0 {
		gwErr.Code = payload.Errors[0].Code
		descs := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			if e.Description != "" {
				descs = append(descs, e.Description)
			}
		}
		gwErr.Description = strings.Join(descs, "; ")
	}
	if gwErr.Description == "" {
		gwErr.Description = http.StatusText(status)
	}
	return gwErr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
