// Package pkg, paketler arası paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Sentinel error'lar errors.Is ile karşılaştırılır, wrap edilmiş olsalar bile eşleşir:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level error'lar.
//
// Service katmanı bunları wrap ederek döner, handler katmanı HTTP status'a map'ler.
// REST client da upstream status code'larını aynı sentinel'lere çevirir,
// böylece upstream 404 bizim API'mizde de 404 olur.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstream      = errors.New("upstream error")
	ErrInternal      = errors.New("internal error")
)
