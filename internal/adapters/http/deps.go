package http

import (
	"github.com/nats-io/nats.go"

	"github.com/martivilar/camins/internal/adapters/postgres"
	"github.com/martivilar/camins/internal/adapters/valkey"
	"github.com/martivilar/camins/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Monuments *usecases.MonumentService
	Segments  *usecases.SegmentService
	Routes    *usecases.RouteService
	Jobs      *usecases.JobService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
