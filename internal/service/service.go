package service

import (
	"github.com/civitas/backend/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DetectionRepository
