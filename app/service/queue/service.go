package queue

import (
	"log/slog"

	"github.com/samber/do"
)

const bufferSize = 64

var _ do.Shutdownable = (*Service)(nil)

// Service buffers pending user inputs between the console reader and the
// turn loop. Inputs are dropped with a warning when the buffer is full.
type Service struct {
	queue chan Input
}

type Input struct {
	Text string
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan Input, bufferSize),
	}, nil
}

func (s *Service) Add(text string) {
	defer func() {
		if r := recover(); r != nil {
			// Send on a closed queue during shutdown is not an error.
		}
	}()

	select {
	case s.queue <- Input{Text: text}:
	default:
		slog.Warn("input queue is full")
	}
}

func (s *Service) Channel() <-chan Input {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
