// Package pipeline fuses the eye, posture and light estimators into one
// metrics record per frame for a single camera session.
package pipeline

import (
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-eyeguard/pkg/eyes"
	"github.com/teslashibe/go-eyeguard/pkg/history"
	"github.com/teslashibe/go-eyeguard/pkg/landmark"
	"github.com/teslashibe/go-eyeguard/pkg/light"
	"github.com/teslashibe/go-eyeguard/pkg/posture"
	"github.com/teslashibe/go-eyeguard/pkg/risk"
)

// Input is one frame and what the detector found in it.
type Input struct {
	Seq   uint64
	At    time.Time
	Image image.Image    // color frame for redness and brightness
	Face  *landmark.Face // nil when no face was found
	Err   error          // detector failure for this frame
}

// Session holds the state that persists across frames of one camera
// stream: blink state, redness history and the smoothed distance.
//
// Process must be called from a single goroutine in capture order. Latest,
// Summary and the other readers are safe to call concurrently with it.
type Session struct {
	id      string
	cfg     Config
	logger  *slog.Logger
	started time.Time

	tracker  *eyes.Tracker
	redness  *history.Samples
	distance *posture.DistanceEstimator

	errStreak int

	mu     sync.RWMutex
	latest Metrics
	frames uint64
}

// NewSession creates a session with a fresh id.
func NewSession(opts ...Option) *Session {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ErrorLogEvery <= 0 {
		cfg.ErrorLogEvery = 1
	}

	id := uuid.NewString()
	return &Session{
		id:       id,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "pipeline.Session", "session", id),
		started:  time.Now(),
		tracker:  eyes.NewTracker(cfg.TimestampCapacity),
		redness:  history.NewSamples(cfg.RednessCapacity),
		distance: posture.NewDistanceEstimator(cfg.Distance),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Started returns when the session was created.
func (s *Session) Started() time.Time { return s.started }

// Process runs every estimator on one frame and returns its record. It
// never fails: missing faces, missing transforms and detector errors all
// degrade to neutral values.
func (s *Session) Process(in Input) Metrics {
	if in.At.IsZero() {
		in.At = time.Now()
	}

	var w, h int
	if in.Image != nil {
		b := in.Image.Bounds()
		w, h = b.Dx(), b.Dy()
	}

	lum := light.Analyze(in.Image)

	m := Metrics{
		SessionID:  s.id,
		Seq:        in.Seq,
		Timestamp:  in.At,
		Brightness: lum.Brightness,
		LightLevel: lum.Level,
		LightRisk:  lum.Risk,
	}

	var (
		pose         posture.Assessment
		redness      float64
		distanceRisk float64
	)

	switch {
	case in.Err != nil:
		s.noteDetectorError(in)
		pose = posture.NoSignal(posture.DetectionError)
		s.fillIdle(&m, in.At)

	case !in.Face.HasMesh():
		s.errStreak = 0
		pose = posture.NoSignal(posture.NoFace)
		s.fillIdle(&m, in.At)

	default:
		s.errStreak = 0
		face := in.Face
		m.Face = true

		left, _ := face.Eye(landmark.LeftEye)
		right, _ := face.Eye(landmark.RightEye)

		r := s.tracker.Process(left, right, w, h, in.At)
		if r.Event == eyes.FullBlink {
			s.logger.Debug("blink", "seq", in.Seq, "blinks", r.Blinks)
		}
		m.EAR = r.EAR
		m.Blinks = r.Blinks
		m.IncompleteBlinks = r.IncompleteBlinks
		m.BlinkRate = s.tracker.Rate(in.At)
		m.Blinking = s.tracker.Blinking()
		m.IsDry = s.tracker.IsDry(in.At)

		if in.Image != nil {
			redness = eyes.FrameRedness(in.Image, left, right)
			s.redness.Add(redness)
		}

		rightPx, leftPx, _ := face.EyePixels(w, h)
		d := s.distance.Update(rightPx, leftPx)
		m.DistanceCM = d.DistanceCM
		distanceRisk = d.Risk()

		if rot, ok := face.Rotation(); ok {
			pose = posture.Assess(posture.Estimate(rot), d)
		} else {
			pose = posture.NoSignal(posture.NoFace)
		}
	}

	level := eyes.LevelOf(redness)
	m.Redness = redness
	m.RednessLevel = level
	m.Pitch, m.Yaw, m.Roll = pose.Pitch, pose.Yaw, pose.Roll
	m.HeadPosition = pose.HeadPosition
	m.Overall = pose.Overall
	m.PostureRisk = pose.Risk
	m.PostureScore = pose.Score
	m.DistanceRisk = distanceRisk

	fused := risk.Compute(risk.Inputs{
		risk.Blink:    risk.BlinkRisk(m.IsDry),
		risk.Redness:  risk.RednessRisk(level.Severity()),
		risk.Posture:  risk.UnitRisk(pose.Risk),
		risk.Distance: risk.UnitRisk(distanceRisk),
		risk.Lighting: risk.LightingRisk(lum.Risk),
	})
	m.RiskScore = fused.Score
	m.RiskLevel = fused.Level
	m.StrainIndex = risk.StrainIndex(fused.Score)

	present(&m)

	s.mu.Lock()
	s.latest = m
	s.frames++
	s.mu.Unlock()

	return m
}

// fillIdle fills the eye and distance fields for frames without landmarks.
// Counts and distance are reported but not mutated.
func (s *Session) fillIdle(m *Metrics, now time.Time) {
	m.Blinks, m.IncompleteBlinks = s.tracker.Counts()
	m.BlinkRate = s.tracker.Rate(now)
	m.Blinking = s.tracker.Blinking()
	m.DistanceCM = s.distance.Current().DistanceCM
}

func (s *Session) noteDetectorError(in Input) {
	s.errStreak++
	if s.errStreak == 1 || s.errStreak%s.cfg.ErrorLogEvery == 0 {
		s.logger.Warn("detector failed", "seq", in.Seq, "streak", s.errStreak, "error", in.Err)
	}
}

// present rounds the record for display.
func present(m *Metrics) {
	m.EAR = round(m.EAR, 3)
	m.Redness = round(m.Redness, 3)
	m.Pitch = round(m.Pitch, 1)
	m.Yaw = round(m.Yaw, 1)
	m.Roll = round(m.Roll, 1)
	m.DistanceCM = round(m.DistanceCM, 1)
	m.Brightness = round(m.Brightness, 2)
	m.RiskScore = round(m.RiskScore, 2)
}

// Latest returns the most recent record. ok is false before the first frame.
func (s *Session) Latest() (m Metrics, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.frames > 0
}

// Frames returns the number of frames processed.
func (s *Session) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Summary aggregates the long window at now.
func (s *Session) Summary(now time.Time) eyes.Summary {
	return eyes.Summarize(now, s.tracker, s.redness)
}

// MeanRedness returns the mean of the bounded redness history.
func (s *Session) MeanRedness() float64 {
	return s.redness.Mean()
}
