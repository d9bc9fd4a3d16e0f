package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// translate converts component and storage errors into the boundary
// representation. Anything unrecognised is a storage fault and surfaces
// as UNAVAILABLE without retry.
func (s *LifecycleService) translate(err error, details map[string]any) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = errors.Join(domain.ErrNotFound, err)
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrDuplicateCode):
		err = errors.Join(domain.ErrConflict, err)
	case errors.Is(err, repository.ErrOpenSessionExists):
		err = errors.Join(domain.ErrSessionAlreadyActive, err)
	case errors.Is(err, repository.ErrSessionNotOpen):
		err = errors.Join(domain.ErrAlreadyClosed, err)
	}
	if de := apperrors.FromDomain(err, details); de != nil {
		return de
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("lifecycle operation cancelled", zap.Error(err))
	} else {
		s.logger.Error("lifecycle storage failure", zap.Error(err))
	}
	return apperrors.NewUnavailable(err)
}
