package envsensors_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/envsensors"
)

// MockI2CBus is a mock implementation of envsensors.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRegisterBus_ReadRegisters(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x53), []byte{0x32}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x53), mock.Anything).Return([]byte{1, 2, 3, 4, 5, 6}, nil).Once()

	buf := make([]byte, 6)
	err := envsensors.NewRegisterBus(bus).ReadRegisters(ctx, 0x53, 0x32, buf)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf)
	bus.AssertExpectations(t)
}

func TestRegisterBus_ReadRegister(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x77), []byte{0xD0}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x77), mock.Anything).Return([]byte{0x60}, nil).Once()

	id, err := envsensors.NewRegisterBus(bus).ReadRegister(ctx, 0x77, 0xD0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x60), id)
	bus.AssertExpectations(t)
}

func TestRegisterBus_PointerWriteFails(t *testing.T) {
	ctx := context.Background()
	busErr := errors.New("nack")
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x77), []byte{0xFA}).Return(busErr).Once()

	err := envsensors.NewRegisterBus(bus).ReadRegisters(ctx, 0x77, 0xFA, make([]byte, 3))
	assert.ErrorIs(t, err, busErr)
	assert.Contains(t, err.Error(), "register pointer")
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterBus_WriteRegister(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x77), []byte{0xE0, 0xB6}).Return(envsensors.ErrBusBusy).Once()

	err := envsensors.NewRegisterBus(bus).WriteRegister(ctx, 0x77, 0xE0, 0xB6)
	assert.ErrorIs(t, err, envsensors.ErrBusBusy)
	bus.AssertExpectations(t)
}
