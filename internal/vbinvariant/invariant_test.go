package vbinvariant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecondition_PassesWhenTrue(t *testing.T) {
	assert.NotPanics(t, func() {
		Precondition(true, "unreachable")
	})
}

func TestPrecondition_PanicsWhenFalse(t *testing.T) {
	defer func() {
		r := recover()
		if assert.NotNil(t, r) {
			assert.Contains(t, r.(string), "PRECONDITION VIOLATION: unitID must not be empty")
		}
	}()
	Precondition(false, "unitID must not be empty")
}

func TestPostcondition_PanicsWhenFalse(t *testing.T) {
	assert.Panics(t, func() {
		Postcondition(false, "result must be non-nil")
	})
}

func TestInvariant_PanicsWhenFalse(t *testing.T) {
	assert.Panics(t, func() {
		Invariant(1 == 2, "impossible: %d != %d", 1, 2)
	})
}

func TestNotNil_PanicsOnNilInterfaceAndTypedNilPointer(t *testing.T) {
	assert.Panics(t, func() {
		NotNil(nil, "value")
	})

	var p *int
	assert.Panics(t, func() {
		NotNil(p, "p")
	})
}

func TestNotNil_PassesOnNonNil(t *testing.T) {
	v := 1
	assert.NotPanics(t, func() {
		NotNil(&v, "v")
	})
}

func TestExpectNoError_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		ExpectNoError(errors.New("boom"), "re-reading bytes just written")
	})
}

func TestExpectNoError_PassesOnNil(t *testing.T) {
	assert.NotPanics(t, func() {
		ExpectNoError(nil, "re-reading bytes just written")
	})
}
