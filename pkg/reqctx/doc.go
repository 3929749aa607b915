// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware sets RequestMeta for every request and AuthClaims for
// authenticated ones. Services read them back, mostly through Logger, so
// log lines carry the request id and acting user.
package reqctx
