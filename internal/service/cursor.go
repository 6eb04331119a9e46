package service

import (
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/pagination"
)

func decodeCursor(raw string) (*pagination.Cursor, error) {
	cursor, err := pagination.DecodeCursor(raw)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid pagination cursor", err)
	}
	return cursor, nil
}
