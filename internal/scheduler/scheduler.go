package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/cooldown"
	"SignalSentinel/internal/levels"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/registry"
	"SignalSentinel/internal/strategy"
)

// Scheduler owns the cron jobs and runs the fetch, evaluate and notify cycles.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Engine    *strategy.Engine
	Finder    *levels.Finder
	Cooldown  *cooldown.Cache
	Registry  *registry.Registry
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Cfg       *config.Config
	Ctx       context.Context
	Now       func() time.Time

	// opMu serializes subscription transitions with job installation.
	opMu   sync.Mutex
	flight singleflight.Group
	pacer  *rate.Limiter
	autoID cron.EntryID

	pendingMu sync.Mutex
	pending   map[int64]model.Mode
}

// NewScheduler creates a new Scheduler from the loaded config.
func NewScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder) (*Scheduler, error) {
	finder, err := cfg.Finder()
	if err != nil {
		return nil, fmt.Errorf("level finder: %w", err)
	}
	logger := cron.PrintfLogger(log.Default())
	limit := rate.Inf
	if p := cfg.ScanPause(); p > 0 {
		limit = rate.Every(p)
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector: col,
		Engine:    cfg.Engine(),
		Finder:    finder,
		Cooldown:  cooldown.NewCache(cfg.WeakCooldown()),
		Registry:  registry.New(ctx),
		Notifier:  n,
		Recorder:  rec,
		Cfg:       cfg,
		Ctx:       ctx,
		Now:       time.Now,
		pacer:     rate.NewLimiter(limit, 1),
		pending:   make(map[int64]model.Mode),
	}, nil
}

// Start installs the shared auto-scan job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	id, err := s.Cron.AddFunc(AutoSpec, s.autoScan)
	if err != nil {
		return fmt.Errorf("register auto scan: %w", err)
	}
	s.autoID = id
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
	return nil
}

// Stop cancels every subscription and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.Registry.StopAll()
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// SelectPair sets the pair of a mode-slot. Scalp slots start polling at once
// and run one forced evaluation; manual and levels slots wait for a timeframe.
func (s *Scheduler) SelectPair(owner int64, mode model.Mode, symbol string) (model.Subscription, error) {
	switch mode {
	case model.ModeScalp:
		s.opMu.Lock()
		s.Registry.Configure(owner, mode, symbol, s.Cfg.Tracking.ScalpTimeframe)
		t, err := s.install(owner, mode)
		s.opMu.Unlock()
		if err != nil {
			return model.Subscription{}, err
		}
		s.runTarget(t, true)
		return t.Sub, nil
	case model.ModeManual, model.ModeLevels:
		s.opMu.Lock()
		sub := s.Registry.Configure(owner, mode, symbol, "")
		s.opMu.Unlock()
		s.setPending(owner, mode)
		return sub, nil
	default:
		return model.Subscription{}, fmt.Errorf("mode %s does not take a pair", mode)
	}
}

// SelectTimeframe completes a manual or levels slot, installs its job and runs one forced evaluation.
func (s *Scheduler) SelectTimeframe(owner int64, mode model.Mode, timeframe string) (model.Subscription, error) {
	s.opMu.Lock()
	if _, err := s.Registry.SelectTimeframe(owner, mode, timeframe); err != nil {
		s.opMu.Unlock()
		return model.Subscription{}, err
	}
	t, err := s.install(owner, mode)
	s.opMu.Unlock()
	if err != nil {
		return model.Subscription{}, err
	}
	s.clearPending(owner)
	s.runTarget(t, true)
	return t.Sub, nil
}

// EnableAuto subscribes owner to the shared auto scan.
func (s *Scheduler) EnableAuto(owner int64) (model.Subscription, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	sub := s.Registry.Configure(owner, model.ModeAuto, "", "")
	if _, err := s.Registry.Activate(owner, model.ModeAuto); err != nil {
		return model.Subscription{}, err
	}
	log.Printf("[INFO] %d joined the auto scan", owner)
	return sub, nil
}

// StopOwner stops every subscription of owner. No notification for them is sent once it returns.
func (s *Scheduler) StopOwner(owner int64) []model.Subscription {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.clearPending(owner)
	return s.Registry.Stop(owner)
}

// Refresh runs a forced evaluation for each polling per-owner slot and returns how many ran.
func (s *Scheduler) Refresh(owner int64) int {
	n := 0
	for _, mode := range []model.Mode{model.ModeManual, model.ModeScalp, model.ModeLevels} {
		for _, t := range s.Registry.Active(mode) {
			if t.Sub.OwnerID == owner {
				s.runTarget(t, true)
				n++
			}
		}
	}
	return n
}

// specParser matches the seconds-precision parser of the cron instance.
var specParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// install creates the activation of a fully configured slot and its cron entry. Caller holds opMu.
func (s *Scheduler) install(owner int64, mode model.Mode) (registry.Target, error) {
	sub := s.Registry.Get(owner, mode)
	spec := ScalpSpec
	if mode != model.ModeScalp {
		var err error
		if spec, err = CronSpec(sub.Timeframe); err != nil {
			return registry.Target{}, err
		}
	}
	schedule, err := specParser.Parse(spec)
	if err != nil {
		return registry.Target{}, fmt.Errorf("parse %q: %w", spec, err)
	}
	act, err := s.Registry.Activate(owner, mode)
	if err != nil {
		return registry.Target{}, err
	}
	t := registry.Target{Sub: sub, Act: act}
	id := s.Cron.Schedule(schedule, cron.FuncJob(func() {
		if !act.Stopped() {
			s.runTarget(t, false)
		}
	}))
	act.OnStop(func() { s.Cron.Remove(id) })
	log.Printf("[INFO] installed %s (%s)", sub, spec)
	return t, nil
}

// evaluate fetches and scores one target. Concurrent calls for the same key share one run.
func (s *Scheduler) evaluate(mode model.Mode, symbol, timeframe string) (*model.Evaluation, error) {
	key := fmt.Sprintf("%s|%s|%s", mode, symbol, timeframe)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.compute(mode, symbol, timeframe)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Evaluation), nil
}

func (s *Scheduler) compute(mode model.Mode, symbol, timeframe string) (*model.Evaluation, error) {
	limit := s.Cfg.Tracking.CandleLimit
	if mode == model.ModeLevels {
		limit = s.Cfg.Tracking.LevelsCandleLimit
	}
	ev := &model.Evaluation{Symbol: symbol, Timeframe: timeframe, Mode: mode, EvaluatedAt: s.Now()}

	set, err := s.Collector.CollectN(s.Ctx, symbol, timeframe, limit)
	var ide *calculator.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		ev.Indicators = model.UndefinedValues()
		ev.Signal = strategy.Hold(ide.Error())
		return ev, nil
	case err != nil:
		return nil, err
	}

	in := strategy.InputFromSet(set)
	opts := s.Cfg.Mode(mode)
	if mode == model.ModeLevels || opts.LevelBonus {
		found := s.Finder.Find(set.Series.Closes())
		ev.Levels = &found
		if opts.LevelBonus {
			in.Levels = ev.Levels
		}
	}
	ev.Price = in.Price
	ev.Indicators = in.Curr
	ev.Signal = s.Engine.Evaluate(in)
	return ev, nil
}

// admit applies the cooldown policy. Forced evaluations always pass and start the
// weak window so the next periodic weak signal is throttled.
func (s *Scheduler) admit(key cooldown.Key, mode model.Mode, strength model.Strength, forced bool) bool {
	throttle := s.Cfg.Mode(mode).ThrottleWeak
	switch {
	case forced:
		if throttle && strength == model.StrengthWeak {
			s.Cooldown.Touch(key)
		}
		return true
	case !throttle:
		return strength > model.StrengthNone
	default:
		return s.Cooldown.Allow(key, strength)
	}
}

// runTarget runs one cycle for a per-owner subscription.
func (s *Scheduler) runTarget(t registry.Target, forced bool) {
	cycle := uuid.NewString()
	sub := t.Sub
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] cycle %s %s panicked: %v", cycle, sub, r)
		}
	}()

	ev, err := s.evaluate(sub.Mode, sub.Symbol, sub.Timeframe)
	if err != nil {
		s.logFailure(cycle, sub.Mode, sub.Symbol, sub.Timeframe, err)
		if forced {
			s.deliver(t.Act, sub.OwnerID, fmt.Sprintf("⚠️ Failed to load data for %s (%s): %v", sub.Symbol, sub.Timeframe, err))
		}
		return
	}

	key := cooldown.Key{Scope: cooldown.OwnerScope(sub.Mode, sub.OwnerID), Symbol: sub.Symbol, Timeframe: sub.Timeframe}
	evt := s.signalEvent(cycle, key.Scope, sub.OwnerID, ev)
	evt.Recipients = 1
	if !s.admit(key, sub.Mode, ev.Signal.Strength, forced) {
		evt.Suppressed = true
		log.Printf("[INFO] cycle %s %s: %s/%s suppressed", cycle, sub, ev.Signal.Label, ev.Signal.Strength)
	} else if s.deliver(t.Act, sub.OwnerID, notifier.FormatSignal(ev)) {
		evt.Delivered = 1
		log.Printf("[INFO] cycle %s %s: %s/%s delivered", cycle, sub, ev.Signal.Label, ev.Signal.Strength)
	}
	s.record(evt)
}

// autoScan evaluates the auto universe once and broadcasts admitted signals to every auto subscriber.
func (s *Scheduler) autoScan() {
	targets := s.Registry.Active(model.ModeAuto)
	if len(targets) == 0 {
		return
	}
	cycle := uuid.NewString()
	log.Printf("[INFO] cycle %s: auto scan for %d subscriber(s)", cycle, len(targets))
	for _, symbol := range s.Cfg.Tracking.AutoUniverse {
		for _, tf := range s.Cfg.Tracking.AutoTimeframes {
			if err := s.pacer.Wait(s.Ctx); err != nil {
				log.Printf("[INFO] cycle %s: auto scan interrupted: %v", cycle, err)
				return
			}
			s.scanOne(cycle, symbol, tf, targets)
		}
	}
}

func (s *Scheduler) scanOne(cycle, symbol, timeframe string, targets []registry.Target) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] cycle %s auto %s %s panicked: %v", cycle, symbol, timeframe, r)
		}
	}()

	ev, err := s.evaluate(model.ModeAuto, symbol, timeframe)
	if err != nil {
		s.logFailure(cycle, model.ModeAuto, symbol, timeframe, err)
		return
	}
	key := cooldown.Key{Scope: cooldown.SharedScope, Symbol: symbol, Timeframe: timeframe}
	evt := s.signalEvent(cycle, key.Scope, 0, ev)
	evt.Recipients = len(targets)
	if !s.admit(key, model.ModeAuto, ev.Signal.Strength, false) {
		evt.Suppressed = true
		s.record(evt)
		return
	}
	text := notifier.FormatSignal(ev)
	for _, t := range targets {
		if s.deliver(t.Act, t.Sub.OwnerID, text) {
			evt.Delivered++
		}
	}
	log.Printf("[INFO] cycle %s auto %s %s: %s/%s delivered to %d/%d",
		cycle, symbol, timeframe, ev.Signal.Label, ev.Signal.Strength, evt.Delivered, len(targets))
	s.record(evt)
}

// deliver sends text unless the activation has stopped. Failures are logged, never fatal.
func (s *Scheduler) deliver(act *registry.Activation, owner int64, text string) bool {
	err := act.Deliver(func(ctx context.Context) error {
		return s.Notifier.Notify(ctx, owner, text)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, registry.ErrStopped), errors.Is(err, context.Canceled):
		return false
	default:
		log.Printf("[ERROR] notify %d: %v", owner, err)
		return false
	}
}

func (s *Scheduler) logFailure(cycle string, mode model.Mode, symbol, timeframe string, err error) {
	kind := "error"
	var fe *collector.FetchError
	var de *model.DataError
	switch {
	case errors.As(err, &fe):
		kind = fe.Kind.String()
		log.Printf("[WARN] cycle %s %s %s %s skipped: %v", cycle, mode, symbol, timeframe, err)
	case errors.As(err, &de):
		kind = "malformed"
		log.Printf("[ERROR] cycle %s %s %s %s aborted: %v", cycle, mode, symbol, timeframe, err)
	default:
		log.Printf("[ERROR] cycle %s %s %s %s failed: %v", cycle, mode, symbol, timeframe, err)
	}
	if rerr := s.Recorder.RecordFetchFailure(&recorder.FetchFailure{
		CycleID: cycle, Mode: mode, Symbol: symbol, Timeframe: timeframe, Kind: kind, Message: err.Error(),
	}); rerr != nil {
		log.Printf("[ERROR] record fetch failure: %v", rerr)
	}
}

func (s *Scheduler) signalEvent(cycle, scope string, owner int64, ev *model.Evaluation) *recorder.SignalEvent {
	return &recorder.SignalEvent{
		CycleID:   cycle,
		Scope:     scope,
		OwnerID:   owner,
		Mode:      ev.Mode,
		Symbol:    ev.Symbol,
		Timeframe: ev.Timeframe,
		Label:     ev.Signal.Label,
		Strength:  ev.Signal.Strength,
		BuyScore:  ev.Signal.BuyScore,
		SellScore: ev.Signal.SellScore,
		Price:     ev.Price,
		RSI:       ev.Indicators.RSI,
	}
}

func (s *Scheduler) record(evt *recorder.SignalEvent) {
	if err := s.Recorder.RecordSignal(evt); err != nil {
		log.Printf("[ERROR] record signal: %v", err)
	}
}

func (s *Scheduler) setPending(owner int64, mode model.Mode) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[owner] = mode
}

func (s *Scheduler) clearPending(owner int64) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, owner)
}

// pendingMode returns the slot awaiting a timeframe for owner.
func (s *Scheduler) pendingMode(owner int64) (model.Mode, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	m, ok := s.pending[owner]
	return m, ok
}
