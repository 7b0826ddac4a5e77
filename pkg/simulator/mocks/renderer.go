// Package mocks provides testify mocks of simulator collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// MockRenderer is a mock of simulator.Renderer.
type MockRenderer struct {
	mock.Mock
}

// MockRenderer_Expecter builds typed expectations.
type MockRenderer_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the expecter.
func (_m *MockRenderer) EXPECT() *MockRenderer_Expecter {
	return &MockRenderer_Expecter{mock: &_m.Mock}
}

// Render provides a mock function.
func (_m *MockRenderer) Render(ctx context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading) error {
	ret := _m.Called(ctx, owner, key, reading)

	if len(ret) == 0 {
		panic("no return value specified for Render")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, registry.OwnerID, registry.DeviceKey, meter.Reading) error); ok {
		r0 = rf(ctx, owner, key, reading)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockRenderer_Render_Call wraps a Render expectation.
type MockRenderer_Render_Call struct {
	*mock.Call
}

// Render expects a Render call with the given argument matchers.
func (_e *MockRenderer_Expecter) Render(ctx interface{}, owner interface{}, key interface{}, reading interface{}) *MockRenderer_Render_Call {
	return &MockRenderer_Render_Call{Call: _e.mock.On("Render", ctx, owner, key, reading)}
}

// Run sets a handler called with the arguments.
func (_c *MockRenderer_Render_Call) Run(run func(ctx context.Context, owner registry.OwnerID, key registry.DeviceKey, reading meter.Reading)) *MockRenderer_Render_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(registry.OwnerID), args[2].(registry.DeviceKey), args[3].(meter.Reading))
	})
	return _c
}

// Return sets the return value.
func (_c *MockRenderer_Render_Call) Return(_a0 error) *MockRenderer_Render_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockRenderer creates a MockRenderer whose expectations are asserted at
// test cleanup.
func NewMockRenderer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRenderer {
	m := &MockRenderer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
