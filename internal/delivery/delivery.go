// Package delivery defines the contract every inbound surface implements.
package delivery

import "context"

// Delivery is a running inbound surface, such as the interactive console.
type Delivery interface {
	// Serve blocks until the surface finishes or ctx is cancelled.
	Serve(ctx context.Context) error
}
