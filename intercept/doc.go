// Package intercept routes remote API calls through a response cache
// without modifying call sites.
//
// A Scope activates interception for a bounded region of client
// construction: clients created through the scope are permanently bound to
// the scope's cache-aware dispatcher, and objects derived from them (such
// as paginators) inherit the binding. Clients created outside any scope, or
// after the scope has exited, call their transport directly.
//
// Cache-layer failures never reach the caller. Key derivation failures,
// unserializable responses, and store errors all downgrade to "operate
// without cache", optionally logged as warnings. Only failures of the
// underlying transport propagate, unchanged and uncached.
package intercept
