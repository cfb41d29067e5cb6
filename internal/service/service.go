package service

import (
	"github.com/hance08/tefpos/internal/store"
	"github.com/hance08/tefpos/internal/tef"
	"go.uber.org/zap"
)

type Service struct {
	Payment *PaymentService
}

func NewService(engine *tef.Engine, repo store.Repository, log *zap.Logger) *Service {
	return &Service{
		Payment: NewPaymentService(engine, repo, log),
	}
}
