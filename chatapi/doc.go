// Package chatapi serves the assistant over HTTP.
//
// Routes:
//
//	POST   /api/sessions                 start a session
//	GET    /api/sessions                 list the caller's sessions
//	GET    /api/sessions/{id}            session with its rendered turns
//	POST   /api/sessions/{id}/messages   send a message, returns the reply
//	DELETE /api/sessions/{id}            delete a session
//	POST   /api/tools/debug_code         check syntax directly
//	POST   /api/tools/run_code           run code directly
//	GET    /healthz                      liveness
//
// The caller is identified by the X-User-ID header and defaults to "user".
// Errors are JSON objects with "error" and "message" fields.
package chatapi
