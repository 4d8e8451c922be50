package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/appgestion-api/internal/infrastructure/scheduler"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) ExpireTrials(context.Context) (int, error) {
	f.calls++
	return 2, f.err
}

func TestNew_ExpresionInvalida(t *testing.T) {
	_, err := scheduler.New("cada día", &fakeSweeper{}, nil)
	assert.Error(t, err)
}

func TestSweepTrials(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := scheduler.New("0 0 * * *", sw, nil)
	require.NoError(t, err)

	s.SweepTrials()
	assert.Equal(t, 1, sw.calls)

	// un fallo no corta el siguiente disparo
	sw.err = errors.New("db caída")
	s.SweepTrials()
	s.SweepTrials()
	assert.Equal(t, 3, sw.calls)
}

func TestStartStop(t *testing.T) {
	s, err := scheduler.New("@daily", &fakeSweeper{}, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())
}
