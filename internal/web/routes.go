package web

import (
	"github.com/kozaktomas/facegate/internal/attendance"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/ledger"
	"github.com/kozaktomas/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(gal *gallery.Store, svc *attendance.Service, led ledger.Ledger) {
	registerHandler := handlers.NewRegisterHandler(gal)
	recognizeHandler := handlers.NewRecognizeHandler(svc)
	attendanceHandler := handlers.NewAttendanceHandler(led, gal)

	s.router.Get("/api/health", handlers.HealthCheck)
	s.router.Post("/api/register", registerHandler.Register)
	s.router.Post("/api/recognize", recognizeHandler.Recognize)
	s.router.Get("/api/attendance", attendanceHandler.List)
	s.router.Get("/api/attendance/{name}", attendanceHandler.ByName)
	s.router.Get("/api/users", attendanceHandler.Users)
	s.router.Get("/export", attendanceHandler.Export)
}
