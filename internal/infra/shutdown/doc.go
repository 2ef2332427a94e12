// Package shutdown coordinates graceful shutdown of fp4-server.
//
// Components register hooks with OnShutdown as they start. Wait blocks for
// SIGINT, SIGTERM or cancellation of the serve context, then runs the hooks
// newest first under a shared deadline:
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown(db.Close)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
