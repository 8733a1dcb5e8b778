// Package httpserver runs an http.Handler with configured timeouts and drains
// it gracefully when the run context ends.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// LivenessHandler and ReadinessHandler serve the /health/live and /health/ready
// probes; readiness takes named Check values built from the storage packages'
// Healthcheck closures.
//
// Errors are wrapped with ErrStart or ErrShutdown for use with errors.Is.
package httpserver
