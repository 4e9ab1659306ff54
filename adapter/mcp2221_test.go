package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/snsctx"
)

// fakeHID answers every report with the next scripted response.
type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	readErr   error
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.responses) == 0 {
		return 0, errors.New("no response scripted")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return len(b), nil
}

func (f *fakeHID) Close() error {
	return nil
}

func report(b ...byte) []byte {
	r := make([]byte, reportSize)
	copy(r, b)
	return r
}

func newTestAdapter(dev *fakeHID) *MCP2221 {
	d := NewMCP2221()
	d.responseWait = 0
	d.open = func(id ...int) (hidDevice, error) {
		return dev, nil
	}
	return d
}

func TestMCP2221_ReadRegisters(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdWriteNoStop, 0x00),
		report(cmdReadRepeated, 0x00),
		report(cmdGetData, 0x00, 0x00, 0x03, 0x7E, 0xED, 0x00),
	}}
	d := newTestAdapter(dev)

	buf := make([]byte, 3)
	require.NoError(t, d.ReadRegisters(context.Background(), 0x77, 0xFA, buf))
	assert.Equal(t, []byte{0x7E, 0xED, 0x00}, buf)
	require.Len(t, dev.requests, 3)
	assert.Equal(t, []byte{cmdWriteNoStop, 0x01, 0x00, 0xEE, 0xFA}, dev.requests[0][:5])
	assert.Equal(t, []byte{cmdReadRepeated, 0x03, 0x00, 0xEF}, dev.requests[1][:4])
	assert.Equal(t, byte(cmdGetData), dev.requests[2][0])
}

func TestMCP2221_WriteRegister(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdWrite, 0x00)}}
	d := newTestAdapter(dev)

	require.NoError(t, d.WriteRegister(context.Background(), 0x53, 0x2D, 0x08))
	assert.Equal(t, []byte{cmdWrite, 0x02, 0x00, 0xA6, 0x2D, 0x08}, dev.requests[0][:6])
}

func TestMCP2221_EveryRequestReadsItsResponse(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdWrite, 0x00),
		report(cmdWrite, 0x00),
	}}
	d := newTestAdapter(dev)

	require.NoError(t, d.WriteRegister(context.Background(), 0x77, 0xF4, 0x27))
	require.NoError(t, d.WriteRegister(context.Background(), 0x77, 0xF5, 0x84))
	assert.Len(t, dev.requests, 2)
	assert.Empty(t, dev.responses)
}

func TestMCP2221_Busy(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdWrite, 0x01)}}
	d := newTestAdapter(dev)

	err := d.WriteRegister(context.Background(), 0x53, 0x2D, 0x08)
	assert.ErrorIs(t, err, envsensors.ErrBusBusy)
}

func TestMCP2221_ReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"engine", report(cmdGetData, 0x41), ErrCommandFailed},
		{"size", report(cmdGetData, 0x00, 0x00, 0x02, 0x01, 0x02), nil},
		{"invalid", report(cmdGetData, 0x00, 0x00, 127), nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dev := &fakeHID{responses: [][]byte{
				report(cmdWriteNoStop, 0x00),
				report(cmdReadRepeated, 0x00),
				test.data,
			}}
			d := newTestAdapter(dev)
			_, err := d.ReadRegister(context.Background(), 0x77, 0xD0)
			require.Error(t, err)
			if test.want != nil {
				assert.ErrorIs(t, err, test.want)
			}
		})
	}
}

func TestMCP2221_ReadTooLong(t *testing.T) {
	d := newTestAdapter(&fakeHID{})
	assert.Error(t, d.ReadRegisters(context.Background(), 0x77, 0x88, make([]byte, 61)))
}

func TestMCP2221_Status(t *testing.T) {
	resp := report(cmdStatus, 0x00)
	resp[9], resp[10] = 0x02, 0x00
	resp[11], resp[12] = 0x01, 0x00
	resp[13] = 4
	resp[14] = 0x1D
	resp[15] = 9
	resp[16], resp[17] = 0xEE, 0x00
	resp[25] = 1
	dev := &fakeHID{responses: [][]byte{resp}}
	d := newTestAdapter(dev)

	status, err := d.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        0x1D,
		I2CTimeout:             9,
		CurrentAddress:         "ee00",
		LastWriteRequestedSize: 2,
		LastWriteSentSize:      1,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_Release(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdStatus, 0x00)}}
	d := newTestAdapter(dev)

	require.NoError(t, d.Release(context.Background()))
	assert.Equal(t, byte(statusCancelTransfer), dev.requests[0][2])
}

func TestMCP2221_TransportError(t *testing.T) {
	failure := errors.New("device disconnected")
	d := newTestAdapter(&fakeHID{readErr: failure})
	assert.ErrorIs(t, d.WriteToAddr(context.Background(), 0x53, []byte{0x00}), failure)
}

func TestMCP2221_DeviceSelection(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdStatus, 0x00), report(cmdStatus, 0x00)}}
	d := newTestAdapter(dev)
	var ids [][]int
	d.open = func(id ...int) (hidDevice, error) {
		ids = append(ids, id)
		return dev, nil
	}

	_, err := d.Status(context.Background())
	require.NoError(t, err)
	_, err = d.Status(snsctx.SetDevice(context.Background(), 2))
	require.NoError(t, err)
	assert.Equal(t, [][]int{nil, {2}}, ids)
}

func TestMCP2221_RegisterBusOverRaw(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdWrite, 0x00),
		report(cmdRead, 0x00),
		report(cmdGetData, 0x00, 0x00, 0x01, 0xE5),
	}}
	bus := envsensors.NewRegisterBus(newTestAdapter(dev))

	id, err := bus.ReadRegister(context.Background(), 0x53, 0x00)
	require.NoError(t, err)
	assert.Equal(t, byte(0xE5), id)
	assert.Equal(t, byte(cmdWrite), dev.requests[0][0])
	assert.Equal(t, byte(cmdRead), dev.requests[1][0])
}
