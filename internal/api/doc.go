// Package api is the tracker's HTTP front end.
//
// Routes:
//
//	GET   /api/state          full caught snapshot
//	PUT   /api/pokemon/{id}   upsert one record, 204
//	GET   /api/prefs          client preferences
//	PATCH /api/prefs          update preferences
//	GET   /healthz            liveness
//	GET   /metrics            Prometheus exposition (when enabled)
//	GET   /, /static/*, ...   files from the static directory
//
// Wrong methods on a known route get 405 with an empty body; unknown files get
// 404 with an empty body.
package api
