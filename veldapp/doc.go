// Package veldapp assembles a batteries-included veld application: typed
// environment configuration, zap logging, OpenTelemetry tracing,
// Prometheus metrics and http.Server lifecycle management, wired together
// with fx dependency injection.
//
// A minimal service:
//
//	type Env struct{ veldapp.BaseEnvironment }
//
//	func main() {
//	    veldapp.NewApp[Env](func(app *veld.App) {
//	        app.Get("/items/:id", getItem)
//	    }).Run()
//	}
//
// The routing function can request any types provided via fx options; at
// minimum it should accept *veld.App for route registration.
package veldapp
