package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/engine"
)

// API bundles the handlers behind the /v1 routes.
type API struct {
	Catalog   *CatalogHandler
	People    *PeopleHandler
	SignalLog *SignalLogHandler
	Stream    *StreamHub
}

// NewAPI creates the handlers. stream may be nil, in which case the
// stream route answers 404.
func NewAPI(e *engine.Engine, stream *StreamHub, logger *zap.Logger) *API {
	return &API{
		Catalog:   NewCatalogHandler(),
		People:    NewPeopleHandler(e, logger),
		SignalLog: NewSignalLogHandler(e, logger),
		Stream:    stream,
	}
}

// RegisterRoutes registers every /v1 route on r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/signals", a.Catalog.ListSignals)
		r.Get("/event-types", a.Catalog.ListEventTypes)
		r.Get("/event-types/{event_type}/actions", a.Catalog.ListActions)
		r.Get("/action-categories", a.Catalog.ListActionCategories)

		r.Get("/connections", a.People.ListConnections)
		r.Post("/connections", a.People.CreateConnection)
		r.Get("/network", a.People.GetNetwork)

		r.Route("/people", func(r chi.Router) {
			r.Get("/", a.People.ListPeople)
			r.Post("/", a.People.CreatePerson)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.People.GetPerson)
				r.Patch("/", a.People.UpdatePerson)
				r.Delete("/", a.People.DeletePerson)
				r.Post("/signals/clear", a.People.ClearSignals)
				r.Post("/signals/{signal}/toggle", a.People.ToggleSignal)

				r.Route("/signal-log", func(r chi.Router) {
					r.Get("/", a.SignalLog.GetTimeline)
					r.Post("/", a.SignalLog.AddEvent)
					r.Get("/summary", a.SignalLog.GetSummary)
					r.Get("/export.xlsx", a.SignalLog.Export)
					if a.Stream != nil {
						r.Get("/stream", a.Stream.ServeHTTP)
					} else {
						r.Get("/stream", http.NotFound)
					}
					r.Delete("/{event_id}", a.SignalLog.DeleteEvent)
					r.Put("/{event_id}/impact", a.SignalLog.UpdateImpact)
					r.Post("/{event_id}/impact/increment", a.SignalLog.IncrementImpact)
					r.Post("/{event_id}/impact/decrement", a.SignalLog.DecrementImpact)
					r.Put("/{event_id}/action", a.SignalLog.RecordAction)
				})
			})
		})
	})
}
