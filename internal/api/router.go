package api

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/api/middleware"
	"github.com/example/ems-custody/internal/auth"
	"github.com/example/ems-custody/internal/entity"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	Logger       *logrus.Logger
	WebDir       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authn := middleware.AuthMiddleware(cfg.JWTService)
	supervisor := middleware.RequireRole(entity.RoleSupervisor)
	admin := middleware.RequireRole(entity.RoleCompanyAdmin)

	protected := func(h http.HandlerFunc) http.Handler {
		return authn(h)
	}
	supervisorOnly := func(h http.HandlerFunc) http.Handler {
		return authn(supervisor(h))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authn(admin(h))
	}

	// Static files (web UI)
	if cfg.WebDir != "" {
		fs := http.FileServer(http.Dir(cfg.WebDir))
		mux.Handle("/", fs)
	}

	// Auth
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Login(w, r)
	})

	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Refresh(w, r)
	})

	mux.Handle("/api/auth/logout", protected(cfg.AuthHandlers.Logout))
	mux.Handle("/api/auth/me", protected(cfg.AuthHandlers.Me))
	mux.Handle("/api/auth/switch-service", protected(cfg.AuthHandlers.SwitchService))

	// Items
	mux.Handle("/api/items/scan", protected(cfg.Handlers.ScanItem))

	mux.Handle("/api/items", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Handlers.CreateItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/api/items/administer", protected(cfg.Handlers.Administer))
	mux.Handle("/api/items/waste", protected(cfg.Handlers.Waste))
	mux.Handle("/api/items/correct", supervisorOnly(cfg.Handlers.Correct))
	mux.Handle("/api/items/transfer", protected(cfg.Handlers.Transfer))
	mux.Handle("/api/items/expired-exchange", protected(cfg.Handlers.ExpiredExchange))

	// Checks
	mux.Handle("/api/checks/sealed", protected(cfg.Handlers.CheckSealed))
	mux.Handle("/api/checks/unsealed", protected(cfg.Handlers.CheckUnsealed))

	// Orders
	mux.Handle("/api/orders", supervisorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Handlers.CreateOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/api/orders/", supervisorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/receive") && r.Method == http.MethodPost:
			cfg.Handlers.ReceiveOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Locations
	mux.Handle("/api/locations", supervisorOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Handlers.CreateLocation(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/api/locations/tree", protected(cfg.Handlers.LocationTree))
	mux.Handle("/api/locations/overdue", protected(cfg.Handlers.OverdueLocations))

	mux.Handle("/api/locations/", protected(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/reconciliation") && r.Method == http.MethodGet:
			cfg.Handlers.ReconcileLocation(w, r)
		case strings.HasSuffix(path, "/compliance") && r.Method == http.MethodGet:
			cfg.Handlers.LocationCompliance(w, r)
		case r.Method == http.MethodPut:
			cfg.Handlers.UpdateLocation(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Discrepancies
	mux.Handle("/api/discrepancies", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Handlers.OpenDiscrepancy(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/api/discrepancies/", supervisorOnly(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/investigate") && r.Method == http.MethodPost:
			cfg.Handlers.InvestigateDiscrepancy(w, r)
		case strings.HasSuffix(path, "/resolve") && r.Method == http.MethodPost:
			cfg.Handlers.ResolveDiscrepancy(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Incidents
	mux.Handle("/api/incidents", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Handlers.CreateIncident(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/api/incidents/", protected(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/items") && r.Method == http.MethodPost:
			cfg.Handlers.AddIncidentItem(w, r)
		case strings.HasSuffix(path, "/close") && r.Method == http.MethodPost:
			cfg.Handlers.CloseIncident(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Reporting
	mux.Handle("/api/audit", supervisorOnly(cfg.Handlers.AuditEvents))
	mux.Handle("/api/activity", protected(cfg.Handlers.ActivityFeed))
	mux.Handle("/api/compliance/summary", protected(cfg.Handlers.ComplianceSummary))

	// Data administration
	mux.Handle("/api/data/export", adminOnly(cfg.Handlers.ExportData))
	mux.Handle("/api/data/import", adminOnly(cfg.Handlers.ImportData))
	mux.Handle("/api/data/reset", adminOnly(cfg.Handlers.ResetData))

	return withLogging(mux, cfg.Logger)
}

func withLogging(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}
