package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"MarketPulse/internal/board"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Publisher pushes board updates and headlines to dashboard clients.
type Publisher interface {
	PublishEntry(entry model.BoardEntry)
	PublishNews(items []model.NewsItem)
}

// NewsFetcher returns the current headlines, falling back to placeholders on its own.
type NewsFetcher interface {
	Fetch(ctx context.Context) []model.NewsItem
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Board     *board.Board
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	// Optional collaborators.
	Publisher Publisher
	News      NewsFetcher
	Metrics   *metrics.Metrics

	refreshMu sync.Mutex

	newsMu sync.RWMutex
	news   []model.NewsItem
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, b *board.Board, tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Board:     b,
		Notifier:  tn,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// RegisterAll registers the refresh, news and digest tasks.
func (s *Scheduler) RegisterAll(refreshCron, newsCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunRefreshNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if s.News != nil {
		if _, err := s.Cron.AddFunc(newsCron, s.newsTask); err != nil {
			return fmt.Errorf("register news task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow collects the watchlist, analyzes every quote and updates the
// board. A refresh already in progress makes this call a no-op returning nil.
func (s *Scheduler) RunRefreshNow() *recorder.RefreshRun {
	if !s.refreshMu.TryLock() {
		log.Println("[WARN] refresh already running, skipping")
		return nil
	}
	defer s.refreshMu.Unlock()

	log.Println("[INFO] running refresh task")
	run := &recorder.RefreshRun{StartedAt: time.Now()}

	snaps := s.Collector.Collect(s.Ctx)
	records := make([]recorder.AnalysisRecord, 0, len(snaps))
	for _, snap := range snaps {
		analysis := strategy.Analyze(&snap.Quote)
		previous, changed := s.Board.Update(snap, analysis)
		entry, _ := s.Board.Get(snap.Instrument.Symbol)

		run.Quotes++
		if snap.Simulated {
			run.Simulated++
		}
		if analysis != nil {
			s.Metrics.AnalysisProduced(snap.Instrument.Symbol, string(analysis.Classification), analysis.Score)
		} else {
			log.Printf("[WARN] %s has no change, analysis skipped", snap.Instrument.Symbol)
		}
		if s.Publisher != nil {
			s.Publisher.PublishEntry(entry)
		}
		if changed {
			run.Changes++
			s.Metrics.ClassificationChanged()
			log.Printf("[INFO] %s classification %s -> %s", snap.Instrument.Symbol, previous, analysis.Classification)
			// Simulated quotes are placeholders; alerting on them would be noise.
			if !snap.Simulated {
				s.trySend(notifier.FormatClassificationChange(entry, previous))
			}
		}
		records = append(records, recorder.AnalysisRecord{Snapshot: snap, Analysis: analysis})
	}
	run.FinishedAt = time.Now()
	s.Metrics.ObserveRefresh(run.FinishedAt.Sub(run.StartedAt))

	if err := s.Recorder.RecordRun(run); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	for i := range records {
		records[i].RunID = run.ID
		if err := s.Recorder.RecordAnalysis(&records[i]); err != nil {
			log.Printf("[ERROR] record analysis %s: %v", records[i].Snapshot.Instrument.Symbol, err)
		}
	}

	log.Printf("[INFO] refresh done: %d quotes, %d simulated, %d classification changes",
		run.Quotes, run.Simulated, run.Changes)
	return run
}

// RunNewsNow fetches headlines immediately.
func (s *Scheduler) RunNewsNow() []model.NewsItem {
	s.newsTask()
	return s.LatestNews()
}

func (s *Scheduler) newsTask() {
	if s.News == nil {
		return
	}
	log.Println("[INFO] running news task")
	items := s.News.Fetch(s.Ctx)

	s.newsMu.Lock()
	s.news = items
	s.newsMu.Unlock()

	if s.Publisher != nil {
		s.Publisher.PublishNews(items)
	}
	if err := s.Recorder.RecordNews(items); err != nil {
		log.Printf("[ERROR] record news: %v", err)
	}
}

// LatestNews returns a copy of the last fetched headlines.
func (s *Scheduler) LatestNews() []model.NewsItem {
	s.newsMu.RLock()
	defer s.newsMu.RUnlock()
	return append([]model.NewsItem(nil), s.news...)
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] sending board digest")
	s.trySend(notifier.FormatBoard(s.Board.List(), time.Now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	// Group chats address commands as /cmd@botname.
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch cmd {
	case "/board":
		return notifier.FormatBoard(s.Board.List(), time.Now())
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		symbol := strings.ToUpper(fields[1])
		entry, ok := s.Board.Get(symbol)
		if !ok {
			return fmt.Sprintf("Unknown symbol %s. Try /board for the watchlist.", symbol)
		}
		return notifier.FormatAnalysis(entry)
	case "/news":
		items := s.LatestNews()
		if len(items) == 0 && s.News != nil {
			items = s.RunNewsNow()
		}
		return notifier.FormatNews(items, time.Now())
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if text == "" || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
