package vbdisplay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", Colorize("x", ColorRed, false))
	assert.Equal(t, ColorRed+"x"+ColorReset, Colorize("x", ColorRed, true))
}

func TestShortID_DeterministicAndShort(t *testing.T) {
	a := ShortID([]byte("checkpoint-digest-bytes"))
	b := ShortID([]byte("checkpoint-digest-bytes"))
	c := ShortID([]byte("different-digest-bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 8)
}

func TestFormatError_IncludesHintAndUnit(t *testing.T) {
	var buf strings.Builder
	FormatError(&buf, &vberrors.SpecError{
		Kind:   vberrors.MissingDoctest,
		UnitID: "units/m/f",
		Detail: "save requires at least one doctest-derived example",
		Hint:   "add a doctest",
	}, false)

	out := buf.String()
	assert.Contains(t, out, "units/m/f")
	assert.Contains(t, out, "missing_doctest")
	assert.Contains(t, out, "Hint: add a doctest")
}

func TestFormatError_FallsBackForUnknownErrors(t *testing.T) {
	var buf strings.Builder
	FormatError(&buf, assert.AnError, false)
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
