package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getadmin "shopfloor-terminal/http-server/admin/get"
	saveadmin "shopfloor-terminal/http-server/admin/save"
	upadmin "shopfloor-terminal/http-server/admin/update"
	geteff "shopfloor-terminal/http-server/efficiency/get"
	saveeff "shopfloor-terminal/http-server/efficiency/save"
	generate_excel "shopfloor-terminal/http-server/generate-report/generate-excel"
	getlogs "shopfloor-terminal/http-server/job-logs/get"
	savelogs "shopfloor-terminal/http-server/job-logs/save"
	uplogs "shopfloor-terminal/http-server/job-logs/update"
	"shopfloor-terminal/http-server/jobs/lookup"
	savejobs "shopfloor-terminal/http-server/jobs/save"
	upjobs "shopfloor-terminal/http-server/jobs/update"
	getrejects "shopfloor-terminal/http-server/rejects/get"
	saverejects "shopfloor-terminal/http-server/rejects/save"
	uprejects "shopfloor-terminal/http-server/rejects/update"
	"shopfloor-terminal/http-server/terminal/actions"
	"shopfloor-terminal/http-server/terminals/login"
	"shopfloor-terminal/http-server/users/authenticate"
	"shopfloor-terminal/internal/config"
	"shopfloor-terminal/internal/middleware/auth"
)

func routes(cfg config.Config, log *slog.Logger, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	timeout := cfg.RequestTimeout

	router.Route("/api", func(r chi.Router) {
		// письмо о переделке может идти дольше обычного запроса
		r.Post("/rejects", saverejects.SaveReject(log, svc.rejects, cfg.SlowRequestTimeout))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Post("/terminals/login", login.Login(log, svc.identity, timeout))
			r.Post("/users/authenticate", authenticate.Authenticate(log, svc.identity, timeout))
			r.Post("/terminal/actions", actions.Apply(log, svc.machine, timeout))

			r.Post("/jobs/lookup", lookup.Lookup(log, svc.jobs, timeout))
			r.Post("/jobs/check", lookup.Check(log, svc.jobs, timeout))
			r.Patch("/jobs/update", upjobs.UpdateCompletion(log, svc.jobs, timeout))
			r.Post("/jobs/add-operation", savejobs.AddOperation(log, svc.jobs, timeout))

			r.Post("/job-logs", savelogs.CreateLog(log, svc.ledger, timeout))
			r.Patch("/job-logs/{id}", uplogs.CloseLog(log, svc.ledger, timeout))
			r.Get("/job-logs", getlogs.GetLogs(log, svc.ledger, timeout))

			r.Post("/efficiency", saveeff.LogEfficiency(log, svc.jobs, svc.efficiency, timeout))
			r.Get("/efficiency", geteff.GetEfficiency(log, svc.efficiency, timeout))

			r.Get("/rejects", getrejects.GetRejects(log, svc.rejects, timeout))
			r.Get("/reject-reasons", getrejects.GetReasons(log, svc.rejects, timeout))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

			r.Post("/reject-reasons", saverejects.SaveReason(log, svc.rejects, timeout))
			r.Put("/reject-reasons/{operation_code}", uprejects.AssignReasonsAdmin(log, svc.rejects, timeout))
			r.Get("/report/excel", generate_excel.GenerateReportExcel(log, svc.report, cfg.SlowRequestTimeout))

			r.Get("/users", getadmin.GetUsersAdmin(log, svc.admin, timeout))
			r.Post("/users", saveadmin.SaveUserAdmin(log, svc.admin, timeout))
			r.Put("/users", upadmin.UpdateUsersAdmin(log, svc.admin, timeout))
			r.Post("/terminals", saveadmin.SaveTerminalAdmin(log, svc.admin, timeout))
		})
	})

	serveFrontend(router, log, cfg.FrontendDir)

	return router
}

// serveFrontend раздаёт сборку клиента терминала, неизвестные пути уходят в index.html.
func serveFrontend(router chi.Router, log *slog.Logger, dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		log.Warn("frontend dir not found, serving API only", slog.String("path", dir))
		return
	}

	index := filepath.Join(dir, "index.html")
	fileServer := http.FileServer(http.Dir(dir))

	router.Handle("/assets/*", fileServer)

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, index)
	})
}
