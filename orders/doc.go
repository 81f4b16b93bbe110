// Package orders implements the orders api: a health check plus get, list,
// save, modify and delete over a single orders table. Requests arrive as api
// gateway proxy events and are routed with package proxy.
package orders
