// Package api provides the warehouse scheduler REST API.
package api
