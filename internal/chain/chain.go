// Package chain implements the trace validation chain: a fixed ordered
// sequence of link services, each forwarding a context-propagated call
// to the next, used to verify end-to-end correlation.
package chain

import "fmt"

// LinkConfig describes one hop. NextURL is empty for the terminal link.
type LinkConfig struct {
	Name     string
	SpanName string
	Addr     string
	NextURL  string
}

// link order and the local span each hop starts. The order is data: the
// whole chain is derived from this one list.
var defaultLinks = []struct {
	name     string
	spanName string
}{
	{"Gateway", "Gateway.Route"},
	{"Auth", "Auth.Validate"},
	{"User", "User.GetProfile"},
	{"Catalog", "Catalog.GetProducts"},
	{"Inventory", "Inventory.Check"},
	{"Basket", "Basket.Load"},
	{"Order", "Order.Create"},
	{"Payment", "Payment.Process"},
	{"Shipping", "Shipping.Dispatch"},
	{"Notification", "Notification.Send"},
}

const basePort = 5011

// DefaultChain builds the ten-link configuration on localhost ports
// 5011..5020, each link pointing at its successor.
func DefaultChain() []LinkConfig {
	configs := make([]LinkConfig, len(defaultLinks))
	for i, l := range defaultLinks {
		configs[i] = LinkConfig{
			Name:     l.name,
			SpanName: l.spanName,
			Addr:     fmt.Sprintf(":%d", basePort+i),
		}
		if i > 0 {
			configs[i-1].NextURL = fmt.Sprintf("http://localhost:%d", basePort+i)
		}
	}
	return configs
}

// Find returns the configured link with the given name.
func Find(configs []LinkConfig, name string) (LinkConfig, error) {
	for _, cfg := range configs {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return LinkConfig{}, fmt.Errorf("unknown chain service %q", name)
}

// TraceResult is the nested response a traversal returns: each hop wraps
// its child's parsed body under Next.
type TraceResult struct {
	Service string       `json:"service"`
	Next    *TraceResult `json:"next"`
}

// Flatten returns the service names of a nested result in call order.
func Flatten(t *TraceResult) []string {
	var names []string
	for node := t; node != nil; node = node.Next {
		names = append(names, node.Service)
	}
	return names
}
