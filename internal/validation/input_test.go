package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReportType(t *testing.T) {
	assert.NoError(t, ValidateReportType("sos"))
	assert.NoError(t, ValidateReportType("normal"))
	assert.Error(t, ValidateReportType("urgent"))
	assert.Error(t, ValidateReportType(""))
}

func TestValidateReportStatus(t *testing.T) {
	for _, status := range []string{"pending", "in_progress", "completed", "cancelled"} {
		assert.NoError(t, ValidateReportStatus(status))
	}
	assert.Error(t, ValidateReportStatus("done"))
	assert.Error(t, ValidateReportStatus("PENDING"))
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(13.7563, 100.5018))
	assert.NoError(t, ValidateCoordinates(-90, 180))
	// Экватор и нулевой меридиан — валидные координаты.
	assert.NoError(t, ValidateCoordinates(0, 0))

	assert.Error(t, ValidateCoordinates(91, 0))
	assert.Error(t, ValidateCoordinates(0, -181))
	assert.Error(t, ValidateCoordinates(math.NaN(), 0))
	assert.Error(t, ValidateCoordinates(0, math.Inf(1)))
}

func TestValidatePointsRequired(t *testing.T) {
	assert.NoError(t, ValidatePointsRequired(1))
	assert.NoError(t, ValidatePointsRequired(500))
	assert.Error(t, ValidatePointsRequired(0))
	assert.Error(t, ValidatePointsRequired(-10))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}
