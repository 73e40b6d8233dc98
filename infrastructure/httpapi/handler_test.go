package httpapi

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatnet/domain"
	apperrors "chatnet/errors"
	"chatnet/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	token services.Token
	err   error
}

func (a *stubAuth) Register(string, string) (services.Token, error) { return a.token, a.err }
func (a *stubAuth) Login(string, string) (services.Token, error)    { return a.token, a.err }
func (a *stubAuth) Guest(string) (services.Token, error)            { return a.token, a.err }
func (a *stubAuth) Identify(string) (domain.Account, error)         { return domain.Account{}, a.err }

type stubReports struct {
	ticket domain.Ticket
	err    error
}

func (r *stubReports) CreateReport(string, string, string) (domain.Report, error) {
	return domain.Report{}, r.err
}
func (r *stubReports) Resolve(string, uuid.UUID) (domain.Report, error) {
	return domain.Report{}, r.err
}
func (r *stubReports) Search(string, string) ([]domain.Report, error) { return nil, r.err }
func (r *stubReports) SubmitTicket(string, string) (domain.Ticket, error) {
	return r.ticket, r.err
}
func (r *stubReports) ResolveTicket(string, uuid.UUID) error { return r.err }

func newTestApp(auth services.IAuthService, reports services.IReportService) *fiber.App {
	app := fiber.New()
	NewHandler(logs.GetLoggerFromLevel(slog.LevelDebug), auth, reports).Register(app)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	r := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader([]byte(body)))
	r.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(r)
	require.New(t).NoError(err)
	return resp
}

func Test_Ticket_Endpoint_Status_Codes(t *testing.T) {
	validBody := `{"username": "mallory", "message": "please let me back in"}`

	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"accepted", validBody, nil, fiber.StatusOK},
		{"malformed body", `{"username":`, nil, fiber.StatusBadRequest},
		{"missing message", `{"username": "mallory"}`, nil, fiber.StatusBadRequest},
		{"unknown account", validBody, apperrors.ErrUserNotFound, fiber.StatusNotFound},
		{"not banned", validBody, apperrors.ErrNotBanned, fiber.StatusForbidden},
		{"open ticket exists", validBody, apperrors.ErrTicketAlreadyOpen, fiber.StatusTooManyRequests},
		{"storage failure", validBody, errors.New("disk on fire"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			reports := &stubReports{ticket: domain.Ticket{ID: uuid.New(), Status: domain.StatusOpen}, err: tc.err}
			app := newTestApp(&stubAuth{}, reports)

			resp := post(t, app, "/api/tickets", tc.body)
			req.Equal(tc.want, resp.StatusCode)
		})
	}
}

func Test_Auth_Endpoint_Status_Codes(t *testing.T) {
	creds := `{"username": "alice", "password": "Sup3rSecretPass"}`

	cases := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"register ok", "/api/register", nil, fiber.StatusOK},
		{"register name taken", "/api/register", apperrors.ErrUserAlreadyExists, fiber.StatusConflict},
		{"register weak password", "/api/register", apperrors.ErrInvalidPassword, fiber.StatusBadRequest},
		{"login ok", "/api/login", nil, fiber.StatusOK},
		{"login bad credentials", "/api/login", apperrors.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"login banned", "/api/login", apperrors.ErrBanned, fiber.StatusForbidden},
		{"guest ok", "/api/guest", nil, fiber.StatusOK},
		{"guest name taken", "/api/guest", apperrors.ErrUserAlreadyExists, fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			app := newTestApp(&stubAuth{token: "tok", err: tc.err}, &stubReports{})

			resp := post(t, app, tc.path, creds)
			req.Equal(tc.want, resp.StatusCode)
		})
	}
}
