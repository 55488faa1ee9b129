package sweep

import (
	"log"
	"sync"
	"time"

	"github.com/codedrop/codedrop/internal/store"
)

type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: time.Hour,
	}
}

// Service periodically evicts expired rooms from the store. It is a
// memory backstop: reads already refuse expired rooms on their own.
type Service struct {
	store  *store.Store
	config Config
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(st *store.Store, config Config) *Service {
	return &Service{
		store:  st,
		config: config,
		stop:   make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Sweeper started (interval: %v)", s.config.Interval)
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("Sweeper stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.SweepNow()
		}
	}
}

// SweepNow runs one eviction pass immediately.
func (s *Service) SweepNow() {
	if removed := s.store.SweepExpired(time.Now()); removed > 0 {
		log.Printf("Swept %d expired rooms (%d remaining)", removed, s.store.Len())
	}
}
