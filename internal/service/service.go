package service

import (
	"github.com/meterforecast/backend/internal/domain"
)

// Interfaces are re-exported from domain for convenience
type (
	ProfileStore    = domain.ProfileStore
	ModelRepository = domain.ModelRepository
	RunRepository   = domain.RunRepository
	Directory       = domain.Directory
)
