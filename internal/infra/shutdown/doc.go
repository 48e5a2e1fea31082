// Package shutdown provides graceful shutdown for AeroSense.
//
// The logger must close its open flight and persist the ring metadata
// before the process exits, or the next boot has to recover them. This
// package runs the registered hooks when SIGINT or SIGTERM arrives or when
// a component calls Trigger:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("ring log", ring.Close)
//	err := h.Wait()
package shutdown
