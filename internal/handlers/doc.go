// Package handlers implements the HTTP API layer of the shared database demo.
//
// Handlers delegate to the services layer and only deal with request validation,
// error mapping to HTTP status codes and model-to-API conversion.
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│   SomethingService ──► Store ──► SharedDB ──► delegate.Queue    │
//	└─────────────────────────────────────────────────────────────────┘
//
// # API Endpoints
//
//	┌────────┬──────────────────┬──────────────────────────────────────┐
//	│ Method │ Endpoint         │ Description                          │
//	├────────┼──────────────────┼──────────────────────────────────────┤
//	│ GET    │ /read            │ List every record ordered by pk      │
//	│ GET    │ /atomic-read     │ Same, inside one transaction         │
//	│ POST   │ /somethings      │ Create a record                      │
//	│ GET    │ /somethings/{id} │ Get one record                       │
//	│ DELETE │ /somethings/{id} │ Delete one record                    │
//	└────────┴──────────────────┴──────────────────────────────────────┘
//
// # Error Mapping
//
//	ResourceNotFoundError → 404
//	invalid id or body    → 400
//	anything else         → 500, logged through the "something_handler" logger
package handlers
