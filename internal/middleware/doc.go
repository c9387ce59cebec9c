// Package middleware provides HTTP middleware for the helper service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Gzip compression of large JSON and YAML replies
//   - Prometheus request metrics labeled by route template
package middleware
