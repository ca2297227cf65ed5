package fund

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
)

func TestApplyNavWalksBothDirections(t *testing.T) {
	s := NewStepper()

	applyNav(s, navNext)
	applyNav(s, navNext)
	assert.Equal(t, StepFees, s.Current())

	applyNav(s, navBack)
	assert.Equal(t, StepBasics, s.Current())

	// Back from the first step stays put.
	applyNav(s, navBack)
	applyNav(s, navBack)
	assert.Equal(t, StepIntro, s.Current())
}

func TestParseRate(t *testing.T) {
	rate, err := parseRate("management-fee-rate", "1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, rate)

	rate, err = parseRate("management-fee-rate", " 10 ")
	require.NoError(t, err)
	assert.Equal(t, 10.0, rate)

	rate, err = parseRate("management-fee-rate", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestParseRateMalformed(t *testing.T) {
	_, err := parseRate("entrance-fee-rate", "two percent")
	require.Error(t, err)

	var verr *chainerr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "entrance-fee-rate", verr.Field)
}

func TestValidRateRepromptsOnGarbage(t *testing.T) {
	assert.NoError(t, validRate(""))
	assert.NoError(t, validRate("2.5"))
	assert.Error(t, validRate("abc"))
}
