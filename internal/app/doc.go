// Package app wires the conversion HTTP service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. The caller loads configuration and initializes logging
//	2. NewApplication sets up OpenTelemetry and the conversion tracer
//	3. The converter, middleware chain and handlers are wired into a chi router
//	4. Run listens, serves and shuts down gracefully when its context ends
//
// # Routes
//
//	GET  /api/health
//	POST /api/v1/conversions
//	GET  /metrics              only with the prometheus metric exporter
//
// # Usage
//
//	app, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
package app
