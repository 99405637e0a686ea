package intercept

import "context"

// Client is a handle for issuing operations against one remote service.
//
// The dispatcher binding is fixed at construction time and lasts for the
// client's lifetime: a client created inside a scope keeps routing through
// that scope's dispatcher even after the scope exits, and objects derived
// from it (paginators) copy the binding. The binding is never an ambient
// lookup.
type Client struct {
	serviceID  string
	transport  Transport
	dispatcher *Dispatcher // nil means calls go straight to the transport
}

// NewClient creates an unbound client whose calls always go straight to
// the transport. Use Scope.NewClient to create a cache-bound client.
func NewClient(serviceID string, transport Transport) *Client {
	return &Client{serviceID: serviceID, transport: transport}
}

// ServiceID returns the remote service identifier the client targets.
func (c *Client) ServiceID() string {
	return c.serviceID
}

// Bound reports whether the client routes calls through a dispatcher.
func (c *Client) Bound() bool {
	return c.dispatcher != nil
}

// Call performs one operation. Bound clients route through their
// dispatcher's hit/miss/store machinery; unbound clients invoke the
// transport directly.
func (c *Client) Call(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	if c.transport == nil {
		return nil, ErrNilTransport
	}
	if c.dispatcher != nil {
		return c.dispatcher.Invoke(ctx, c.transport, c.serviceID, operation, params)
	}
	return c.transport.Invoke(ctx, c.serviceID, operation, params)
}

// DefaultTokenParam is the parameter and response field used for
// pagination continuation unless overridden on the Paginator.
const DefaultTokenParam = "NextToken"

// Paginator iterates a paged operation. It copies the creating client's
// state, dispatcher binding included, so pages requested after the
// client's scope has exited still resolve through the same cache.
//
// Not safe for concurrent use; each goroutine should derive its own.
type Paginator struct {
	client    Client // value copy fixes the binding at derivation time
	operation string
	params    map[string]any

	// TokenParam is the request parameter and response field carrying the
	// continuation token. Defaults to DefaultTokenParam.
	TokenParam string

	nextToken string
	started   bool
	done      bool
}

// Paginator derives a paginator for a paged operation. The params map is
// copied; later mutation of the original does not affect the paginator.
func (c *Client) Paginator(operation string, params map[string]any) *Paginator {
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return &Paginator{
		client:     *c,
		operation:  operation,
		params:     copied,
		TokenParam: DefaultTokenParam,
	}
}

// HasMorePages reports whether NextPage can return another page.
func (p *Paginator) HasMorePages() bool {
	return !p.done
}

// NextPage fetches the next page. The continuation token from each
// response is fed back as a request parameter; iteration ends when a
// response carries no token. Returns ErrNoMorePages once exhausted.
func (p *Paginator) NextPage(ctx context.Context) (map[string]any, error) {
	if p.done {
		return nil, ErrNoMorePages
	}

	params := make(map[string]any, len(p.params)+1)
	for k, v := range p.params {
		params[k] = v
	}
	if p.started && p.nextToken != "" {
		params[p.TokenParam] = p.nextToken
	}

	page, err := p.client.Call(ctx, p.operation, params)
	if err != nil {
		return nil, err
	}
	p.started = true

	token, _ := page[p.TokenParam].(string)
	p.nextToken = token
	p.done = token == ""
	return page, nil
}
