package envsensors_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/envsensors"
	"github.com/mklimuk/envsensors/bustest"
)

func TestInitSequence_Identify(t *testing.T) {
	tests := []struct {
		name      string
		id        byte
		failRead  bool
		mismatch  bool
		errsAfter int
	}{
		{name: "match", id: 0xE5},
		{name: "mismatch", id: 0x00, mismatch: true},
		{name: "read error with garbage", id: 0x13, failRead: true, mismatch: true, errsAfter: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := bustest.New().Load(0x53, 0x00, tt.id)
			if tt.failRead {
				regs.FailRead(0x53, 0x00)
			}
			seq := &envsensors.InitSequence{Bus: regs, Address: 0x53}
			err := seq.Identify(context.Background(), 0x00, 0xE5)
			if tt.mismatch {
				require.ErrorIs(t, err, envsensors.ErrUnknownDevice)
			} else {
				require.NoError(t, err)
			}
			if tt.failRead {
				assert.ErrorIs(t, err, bustest.ErrInjected)
			}
			assert.Equal(t, tt.errsAfter, seq.Errors())
		})
	}
}

func TestInitSequence_WriteCountsErrors(t *testing.T) {
	regs := bustest.New().FailWrite(0x77, 0xF5)
	seq := &envsensors.InitSequence{Bus: regs, Address: 0x77}
	ctx := context.Background()

	seq.Write(ctx, 0xE0, 0xB6)
	seq.Write(ctx, 0xF5, 0x84)
	seq.Write(ctx, 0xF4, 0x27)

	assert.Equal(t, 1, seq.Errors())
	assert.ErrorIs(t, seq.LastError(), bustest.ErrInjected)
	assert.Len(t, regs.Writes(), 3, "a failed write must not stop the sequence")
	assert.Equal(t, byte(0x27), regs.Value(0x77, 0xF4))
}

func TestInitSequence_Wait(t *testing.T) {
	delays := &bustest.Delays{}
	seq := &envsensors.InitSequence{Bus: bustest.New(), Delay: delays.Delay}
	require.NoError(t, seq.Wait(context.Background(), 100*time.Millisecond))
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, delays.Seen())
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := envsensors.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
