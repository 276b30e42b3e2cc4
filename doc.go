// Package fileloader provides a small validated-upload service for text files
// backed by an object store and a relational metadata table.
//
// An upload is validated structurally (size, media type, extension, name
// length) and by content (SQL and script signatures), written to the object
// store under a freshly generated key and then recorded in the database. The
// two writes are kept consistent: if anything fails after the object store
// write starts, the database transaction is rolled back and the object is
// removed again.
//
// # Key Components
//
//   - UploadService: orchestrates create, get, list, delete and reconcile
//   - FileValidator / ContentValidator: pure checks run before any I/O
//   - ObjectStore: blob storage (see the s3 and filesystem packages)
//   - UploadRepo / UploadTx: transactional record persistence (see database/postgres and database/sqlite)
//
// # Example Usage
//
//	service, err := fileloader.NewUploadService(repo, store, fileloader.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	record, err := service.Create(ctx, fileloader.NewUpload{
//	    Name:      "notes.txt",
//	    MediaType: "text/plain",
//	    Size:      header.Size,
//	    Content:   file,
//	})
//
// See the http package for the REST API and the cmd directory for the server
// and client binaries.
package fileloader
