// Package backend is the IDNOFunny API server.

// This package only anchors the module root. The actual code lives in
// the subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication, verification and account recovery
// - internal/media: Upload validation, sniffing and image normalization
// - internal/moderation: Comment abuse gate
// - internal/feed: Feed assembly, sorting and per-viewer annotations
// - internal/social: Follow graph and like toggles
// - internal/storage: File storage (local disk or S3) operations
// - internal/database: Database connection and migrations
// - internal/email: Email service integration
// - internal/tasks: Background email delivery queue
// - internal/middleware: HTTP middleware (rate limiting, caching, metrics)

// See the individual package documentation for detailed API reference.
package backend
