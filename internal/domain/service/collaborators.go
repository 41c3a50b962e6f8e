package service

import (
	"context"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

// LightCurveSource fetches the observed light curve for a target.
// It returns models.ErrNotFound when the archive has no data.
type LightCurveSource interface {
	Load(ctx context.Context, target string) (*models.LightCurve, error)
}

// Detrender removes invalid samples and outliers and flattens long-term trends.
// It returns the cleaned series and the flattened series.
type Detrender interface {
	Detrend(lc *models.LightCurve) (cleaned *models.LightCurve, flat *models.LightCurve, err error)
}

// PeriodSearch finds the best box-shaped transit in a flattened light curve.
type PeriodSearch interface {
	Search(ctx context.Context, flat *models.LightCurve) (models.TransitResult, error)
}

// Folder phase-folds a light curve on a period around an epoch.
type Folder interface {
	Fold(lc *models.LightCurve, period, epoch float64) (*models.FoldedLightCurve, error)
}
