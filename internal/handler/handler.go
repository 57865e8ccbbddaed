// Package handler is the thin HTTP surface over the scheduling core:
// request validation, identity resolution and error translation live
// here, invariants do not.
package handler

import (
	"go.uber.org/zap"

	"github.com/paperfour/tandem/internal/schedule"
	"github.com/paperfour/tandem/internal/store"
)

type Handler struct {
	svc    *schedule.Service
	store  store.Store
	secret string
	log    *zap.Logger
}

func New(svc *schedule.Service, st store.Store, secret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, store: st, secret: secret, log: log}
}
