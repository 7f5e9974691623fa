// Package hubserver implements the Looker Action Hub webhook that lets
// operators trigger the dashboard update workflow from any dashboard's
// action menu. It serves the hub listing, the dynamic form, and the execute
// endpoint that dispatches the GitHub Actions workflow.
package hubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pkt.systems/pslog"
)

// integrationIcon is the upload glyph shown next to the action in Looker.
const integrationIcon = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIyNCIgaGVpZ2h0PSIyNCIgdmlld0JveD0iMCAwIDI0IDI0IiBmaWxsPSJub25lIiBzdHJva2U9IiM1OGE2ZmYiIHN0cm9rZS13aWR0aD0iMiI+PHBhdGggZD0iTTIxIDE1djRhMiAyIDAgMCAxLTIgMkg1YTIgMiAwIDAgMS0yLTJ2LTQiLz48cG9seWxpbmUgcG9pbnRzPSIxNyA4IDEyIDMgNyA4Ii8+PGxpbmUgeDE9IjEyIiB5MT0iMyIgeDI9IjEyIiB5Mj0iMTUiLz48L3N2Zz4="

// Dispatcher triggers the dashboard update workflow, normally the GitHub
// API client.
type Dispatcher interface {
	DispatchWorkflow(ctx context.Context, owner, repo, workflowFile, ref string, inputs map[string]string) error
}

// Config configures the action hub server.
type Config struct {
	Addr string
	// Secret, when set, must appear in the Authorization header of every
	// execute request as `Token token="<secret>"`.
	Secret       string
	Owner        string
	Repo         string
	WorkflowFile string
	Ref          string
}

// Server is the action hub HTTP server.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	echo       *echo.Echo
}

// New constructs the server and registers its routes.
func New(cfg Config, dispatcher Dispatcher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{cfg: cfg, dispatcher: dispatcher, echo: e}
	e.HTTPErrorHandler = errorResponse
	e.Use(requestLogging())
	// Looker calls the function under an arbitrary base path; routing
	// goes by path suffix, matching the deployed cloud function.
	e.Any("/", s.route)
	e.Any("/*", s.route)
	return s
}

// Handler exposes the underlying handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.Addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type lookerStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type lookerResponse struct {
	Looker lookerStatus `json:"looker"`
}

type executeRequest struct {
	FormParams map[string]string `json:"form_params"`
}

func (s *Server) route(c echo.Context) error {
	path := strings.TrimRight(c.Request().URL.Path, "/")
	switch {
	case strings.HasSuffix(path, "/form"):
		if c.Request().Method != http.MethodPost {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not Found"})
		}
		return s.handleForm(c)
	case strings.HasSuffix(path, "/execute"):
		if c.Request().Method != http.MethodPost {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Not Found"})
		}
		return s.handleExecute(c)
	default:
		return s.handleListing(c)
	}
}

// handleListing answers the Action Hub discovery request with the single
// integration this hub offers.
func (s *Server) handleListing(c echo.Context) error {
	base := requestBaseURL(c)
	return c.JSON(http.StatusOK, map[string]any{
		"label": "LookML Dashboard Updater",
		"integrations": []map[string]any{
			{
				"name":                   "update_lookml_dashboard",
				"label":                  "🔄 Actualizar Dashboard en base_project",
				"description":            "Importa el LookML de este dashboard, limpia id/slug y reemplaza el modelo por @{model_name}",
				"supported_action_types": []string{"dashboard"},
				"icon_data_uri":          integrationIcon,
				"form_url":               base + "/form",
				"url":                    base + "/execute",
				"supported_formats":      []string{"txt"},
				"params":                 []any{},
			},
		},
	})
}

func (s *Server) handleForm(c echo.Context) error {
	return c.JSON(http.StatusOK, []map[string]any{
		{
			"name":        "dashboard_id",
			"label":       "Dashboard ID",
			"description": "ID del dashboard en Looker a actualizar en base_project",
			"type":        "text",
			"required":    true,
		},
		{
			"name":        "confirm",
			"label":       "Confirmar actualización",
			"description": "¿Seguro que quieres actualizar este dashboard?",
			"type":        "select",
			"required":    true,
			"options": []map[string]string{
				{"name": "yes", "label": "✅ Sí, actualizar"},
				{"name": "no", "label": "❌ No, cancelar"},
			},
			"default": "yes",
		},
	})
}

func (s *Server) handleExecute(c echo.Context) error {
	// Malformed bodies behave like empty ones; the missing-field checks
	// below produce the operator-facing message.
	var req executeRequest
	_ = json.NewDecoder(c.Request().Body).Decode(&req)

	dashboardID := strings.TrimSpace(req.FormParams["dashboard_id"])
	confirm := req.FormParams["confirm"]
	if confirm == "" {
		confirm = "no"
	}

	if confirm != "yes" {
		return c.JSON(http.StatusOK, lookerResponse{
			Looker: lookerStatus{Success: true, Message: "Acción cancelada por el usuario."},
		})
	}
	if dashboardID == "" {
		return c.JSON(http.StatusBadRequest, lookerResponse{
			Looker: lookerStatus{Success: false, Message: "Falta el Dashboard ID."},
		})
	}
	if s.cfg.Secret != "" {
		auth := c.Request().Header.Get("Authorization")
		if !strings.Contains(auth, fmt.Sprintf("Token token=%q", s.cfg.Secret)) {
			return c.JSON(http.StatusUnauthorized, lookerResponse{
				Looker: lookerStatus{Success: false, Message: "Unauthorized"},
			})
		}
	}

	ctx := c.Request().Context()
	log := pslog.Ctx(ctx).With("dashboard_id", dashboardID)
	err := s.dispatcher.DispatchWorkflow(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.WorkflowFile, s.cfg.Ref,
		map[string]string{"dashboard_id": dashboardID})
	if err != nil {
		log.Warn("workflow dispatch failed", "err", err)
		return c.JSON(http.StatusOK, lookerResponse{
			Looker: lookerStatus{Success: false, Message: err.Error()},
		})
	}
	log.Info("workflow dispatched")
	return c.JSON(http.StatusOK, lookerResponse{
		Looker: lookerStatus{Success: true, Message: fmt.Sprintf("Workflow disparado para dashboard %s", dashboardID)},
	})
}

// errorResponse shapes uncaught handler errors the way Looker expects, so
// the action menu shows the detail instead of a generic failure.
func errorResponse(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}
	_ = c.JSON(code, lookerResponse{
		Looker: lookerStatus{Success: false, Message: "Error: " + err.Error()},
	})
}

// requestBaseURL rebuilds the externally visible base URL of this hub from
// the forwarded proto, the host, and the request path with the known
// endpoint suffixes removed.
func requestBaseURL(c echo.Context) string {
	r := c.Request()
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	path := strings.TrimRight(r.URL.Path, "/")
	for _, suffix := range []string{"/form", "/execute", "/action_list"} {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}
	return proto + "://" + r.Host + path
}
