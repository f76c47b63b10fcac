package services

import (
	"math"

	"github.com/irfndi/dss-scanner/internal/models"
)

// Classify reads the momentum direction from the last values of the signal
// and trigger lines. An empty line or a NaN value yields Unavailable.
func Classify(signal, trigger []float64) models.TimeframeLabel {
	if len(signal) == 0 || len(trigger) == 0 {
		return models.UnavailableLabel()
	}

	s := signal[len(signal)-1]
	t := trigger[len(trigger)-1]
	if math.IsNaN(s) || math.IsNaN(t) {
		return models.UnavailableLabel()
	}

	switch {
	case s > t:
		return models.NewTimeframeLabel(models.DirectionBullish, s)
	case s < t:
		return models.NewTimeframeLabel(models.DirectionBearish, s)
	default:
		return models.NewTimeframeLabel(models.DirectionFlat, s)
	}
}
