package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"csv-stock-merge/docs"
	"csv-stock-merge/internal/api/handler"
	"csv-stock-merge/internal/store"
	"csv-stock-merge/pkg/router"
)

// NewRouter builds the run-history API router with swagger UI mounted on
// /swagger/.
func NewRouter(runs *store.Store) *router.Router {
	r := router.New()
	h := handler.NewRunHandler(runs)

	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*/events", h.GetRunEvents)
	r.GET("/api/v1/runs/*", h.GetRun)

	r.GET("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.OpenAPI)
	})
	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}
