// Package scheduler ejecuta las tareas periódicas de la aplicación.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/appgestion-api/pkg/logger"
)

// TrialSweeper caduca las pruebas gratuitas vencidas.
type TrialSweeper interface {
	ExpireTrials(ctx context.Context) (int, error)
}

// Scheduler envuelve cron con las tareas registradas.
type Scheduler struct {
	cron    *cron.Cron
	sweeper TrialSweeper
	timeout time.Duration
	log     *logger.Logger
}

// New registra el barrido de pruebas con la expresión cron indicada (5 campos, p. ej. "0 0 * * *").
func New(spec string, sweeper TrialSweeper, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		timeout: 5 * time.Minute,
		log:     log.Component("scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.SweepTrials); err != nil {
		return nil, fmt.Errorf("scheduler: expresión cron %q inválida: %w", spec, err)
	}
	return s, nil
}

// Start arranca el cron en segundo plano.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler iniciado")
}

// Stop detiene el cron y espera a las tareas en curso o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler: tareas en curso sin terminar al apagar")
	}
}

// SweepTrials ejecuta un barrido. Los errores se registran; el siguiente disparo lo reintenta.
func (s *Scheduler) SweepTrials() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweeper.ExpireTrials(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de pruebas fallido")
		return
	}
	s.log.Info().Int("expired", n).Dur("took", time.Since(start)).Msg("barrido de pruebas completado")
}
