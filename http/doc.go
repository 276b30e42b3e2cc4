// Package http exposes the file upload service over a JSON HTTP API.
//
// # Routes
//
//	POST   /api/files/      multipart upload, form field "file"
//	GET    /api/files/      list records newest first (?limit=&cursor=)
//	GET    /api/files/{id}  one record including its content
//	DELETE /api/files/{id}  remove the object and its record
//	GET    /healthz         database reachability
//
// # Responses
//
// Every JSON body is an Envelope:
//
//	{
//	  "success": false,
//	  "timestamp": "2024-05-01T12:00:00Z",
//	  "error": "invalid_extension",
//	  "message": "Only .txt files are allowed"
//	}
//
// Validation failures map to 400, missing records to 404, object storage
// failures to 503 and anything else to 500. Internal error detail is logged,
// never returned.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    MaxUploadSize: 1 << 20,
//	    Health:        db,
//	}, service)
//
//	srv := &nethttp.Server{Addr: ":8000", Handler: handler.Router()}
package http
