/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package hub

// registry maps each live connection's player ID to its client. It is only
// touched from the hub goroutine.
type registry struct {
	clients map[string]*Client
}

func newRegistry() *registry {
	return &registry{clients: make(map[string]*Client)}
}

func (r *registry) add(c *Client) {
	r.clients[c.id] = c
}

func (r *registry) get(id string) (*Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

func (r *registry) remove(id string) {
	delete(r.clients, id)
}

func (r *registry) len() int {
	return len(r.clients)
}

func (r *registry) all() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
