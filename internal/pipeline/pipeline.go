// Package pipeline orchestrates Pa, Pv and Pq into the single-session,
// single-threaded calculation flow spec.md §5 describes: calculate_pa,
// then calculate_pv, then calculate_integration, each building on the
// previous stage's output and each substitutable via the small
// interfaces below (spec.md §9's design note on re-architecting the
// reference implementation's dynamic Pa/Pv/Pq injection as Go
// interfaces rather than duck-typed classes).
package pipeline

import (
	"context"
	"time"

	"github.com/qualitylab/p1203go/internal/audio"
	"github.com/qualitylab/p1203go/internal/integration"
	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/perror"
	"github.com/qualitylab/p1203go/internal/report"
	"github.com/qualitylab/p1203go/internal/rf"
	"github.com/qualitylab/p1203go/internal/telemetry"
	"github.com/qualitylab/p1203go/internal/video"
)

// AudioCalculator is the substitution point for Pa.
type AudioCalculator interface {
	Calculate(fastMode bool) error
	Scores() []float64
}

// VideoCalculator is the substitution point for Pv.
type VideoCalculator interface {
	Calculate() error
	Scores() []float64
	ModeUsed() int
}

// IntegrationCalculator is the substitution point for Pq.
type IntegrationCalculator interface {
	Calculate() (integration.Result, error)
}

// AudioFactory builds the AudioCalculator for one session's I11 segments.
type AudioFactory func(streamID int, segments []report.AudioSegment) AudioCalculator

// VideoFactory builds the VideoCalculator for one session's I13 segments.
type VideoFactory func(streamID int, displayRes string, segments []report.VideoSegment) VideoCalculator

// IntegrationFactory builds the IntegrationCalculator from both tracks.
type IntegrationFactory func(o21, o22, pBuff, lBuff []float64, device string) IntegrationCalculator

// Config selects the pluggable models and session-wide options (spec.md §6).
type Config struct {
	FastMode           bool
	Amendment1AV       bool
	Amendment1Stalling bool
	Amendment1App2     bool
	Ensemble           *rf.Ensemble
	NewAudioCalculator AudioFactory
	NewVideoCalculator VideoFactory
	NewIntegrationCalc IntegrationFactory
}

// Pipeline holds the configuration shared by every session it runs; it
// carries no per-session mutable state and is safe to reuse concurrently
// (the driver parallelizes across sessions, never within one, per
// spec.md §5).
type Pipeline struct {
	cfg Config
}

// New builds a Pipeline, defaulting unset factories to the standard
// Pa/Pv/Pq implementations.
func New(cfg Config) *Pipeline {
	if cfg.NewAudioCalculator == nil {
		cfg.NewAudioCalculator = func(streamID int, segments []report.AudioSegment) AudioCalculator {
			return audio.New(streamID, segments)
		}
	}
	if cfg.NewVideoCalculator == nil {
		cfg.NewVideoCalculator = func(streamID int, displayRes string, segments []report.VideoSegment) VideoCalculator {
			return video.New(streamID, displayRes, segments)
		}
	}
	if cfg.NewIntegrationCalc == nil {
		cfg.NewIntegrationCalc = func(o21, o22, pBuff, lBuff []float64, device string) IntegrationCalculator {
			m := integration.New(o21, o22, pBuff, lBuff, device)
			m.Amendments = integration.Amendments{
				Audiovisual: cfg.Amendment1AV,
				Stalling:    cfg.Amendment1Stalling,
				App2:        cfg.Amendment1App2,
			}
			m.Ensemble = cfg.Ensemble
			return m
		}
	}
	return &Pipeline{cfg: cfg}
}

type phase int

const (
	phaseInitial phase = iota
	phaseAudioDone
	phaseVideoDone
	phaseIntegrationDone
)

// Session tracks one input report's progress through the three stages.
// Stages must be called in order; Run does this for callers who don't
// need to inspect intermediate state.
type Session struct {
	pipeline *Pipeline
	input    report.InputReport

	phase phase

	streamID   int
	displayRes string
	device     string

	o21, o22     []float64
	videoMode    int
	pBuff, lBuff []float64
}

// NewSession starts a session over one validated input report.
func (p *Pipeline) NewSession(ir report.InputReport) *Session {
	igen := report.ResolvedIGen(ir.IGen)
	return &Session{
		pipeline:   p,
		input:      ir,
		displayRes: igen.DisplaySize,
		device:     igen.Device,
	}
}

// CalculatePa runs Pa (or consumes a precomputed O21 track) and advances
// the session to phaseAudioDone.
func (s *Session) CalculatePa() ([]float64, error) {
	if s.phase != phaseInitial {
		return nil, perror.New(perror.KindUsage, "calculate_pa called out of order")
	}

	if s.input.I11 != nil {
		if s.input.I11.StreamID != nil {
			s.streamID = *s.input.I11.StreamID
		}
		calc := s.pipeline.cfg.NewAudioCalculator(s.streamID, s.input.I11.Segments)
		if err := calc.Calculate(s.pipeline.cfg.FastMode); err != nil {
			return nil, err
		}
		s.o21 = calc.Scores()
	} else if s.input.O21 != nil {
		s.o21 = s.input.O21
	} else {
		return nil, perror.New(perror.KindSchema, "no I11 or O21 found in input report")
	}

	s.phase = phaseAudioDone
	return s.o21, nil
}

// CalculatePv runs Pv (or consumes a precomputed O22 track) and advances
// the session to phaseVideoDone.
func (s *Session) CalculatePv() ([]float64, error) {
	if s.phase != phaseAudioDone {
		return nil, perror.New(perror.KindUsage, "calculate_pv called out of order")
	}

	if s.input.I13 != nil {
		if len(s.input.I13.Segments) == 0 {
			return nil, perror.New(perror.KindSchema, "no video segments defined, check your input format")
		}
		if s.input.I13.StreamID != nil {
			s.streamID = *s.input.I13.StreamID
		}
		displayRes := s.displayRes
		if displayRes == "" {
			displayRes = "1920x1080"
		}
		calc := s.pipeline.cfg.NewVideoCalculator(s.streamID, displayRes, s.input.I13.Segments)
		if err := calc.Calculate(); err != nil {
			return nil, err
		}
		s.o22 = calc.Scores()
		s.videoMode = calc.ModeUsed()
	} else if s.input.O22 != nil {
		s.o22 = s.input.O22
		s.videoMode = -1
	} else {
		return nil, perror.New(perror.KindSchema, "no I13 or O22 found in input report")
	}

	s.phase = phaseVideoDone
	return s.o22, nil
}

// CalculateIntegration runs Pq and advances the session to
// phaseIntegrationDone.
func (s *Session) CalculateIntegration() (integration.Result, error) {
	if s.phase != phaseVideoDone {
		return integration.Result{}, perror.New(perror.KindUsage, "calculate_integration called out of order")
	}

	maxDuration := float64(len(s.o22))
	if s.input.I23 != nil {
		s.pBuff, s.lBuff = report.ResolveStalling(s.input.I23.Stalling, maxDuration)
	}

	device := s.device
	if device == "" {
		device = "pc"
	}

	calc := s.pipeline.cfg.NewIntegrationCalc(s.o21, s.o22, s.pBuff, s.lBuff, device)
	result, err := calc.Calculate()
	if err != nil {
		return integration.Result{}, err
	}

	s.phase = phaseIntegrationDone
	return result, nil
}

// Run executes all three stages in order and assembles the final
// session-level Result, mirroring calculate_complete's behavior
// (spec.md §6).
func (p *Pipeline) Run(ctx context.Context, ir report.InputReport) (report.Result, error) {
	sessionID := log.SessionIDFromContext(ctx)
	logger := log.L().With().Str("session_id", sessionID).Logger()

	s := p.NewSession(ir)

	logger.Debug().Msg("calculating audio scores")
	stop := telemetry.ObserveStage("pa")
	_, err := s.CalculatePa()
	stop()
	if err != nil {
		recordFailure(err)
		return report.Result{}, err
	}

	logger.Debug().Msg("calculating video scores")
	stop = telemetry.ObserveStage("pv")
	_, err = s.CalculatePv()
	stop()
	if err != nil {
		recordFailure(err)
		return report.Result{}, err
	}

	logger.Debug().Msg("calculating integration module")
	stop = telemetry.ObserveStage("pq")
	result, err := s.CalculateIntegration()
	stop()
	if err != nil {
		recordFailure(err)
		return report.Result{}, err
	}

	telemetry.RecordSessionOutcome("ok")
	telemetry.RecordO46(result.O46)

	return report.Result{
		StreamID: s.streamID,
		Mode:     s.videoMode,
		O23:      result.O23,
		O34:      result.O34,
		O35:      result.O35,
		O46:      result.O46,
		Date:     time.Now().UTC().Format(time.RFC3339),
		O21:      s.o21,
		O22:      s.o22,
	}, nil
}

func recordFailure(err error) {
	telemetry.RecordSessionOutcome("error")
	if kind, ok := perror.KindOf(err); ok {
		telemetry.RecordError(string(kind))
	} else {
		telemetry.RecordError("unknown")
	}
}
