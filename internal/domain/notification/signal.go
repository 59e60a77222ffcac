package notification

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SignalRepository fans freshly created notifications out to in-process
// subscribers (the app's live notification feed).
type SignalRepository interface {
	// Subscribe returns a channel of notifications and a cancel function.
	// The cancel function must be called when the subscriber goes away.
	Subscribe() (<-chan *Notification, func(), error)

	// Publish delivers a notification to every current subscriber.
	Publish(notification *Notification) error
}

// subscription is one live subscriber. Its mutex orders sends against close
// so a concurrent cancel can never race a publish into a closed channel.
type subscription struct {
	mu     sync.Mutex
	ch     chan *Notification
	closed bool
}

// send delivers without blocking; a full or already-closed channel drops the
// message.
func (s *subscription) send(notification *Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- notification:
		return true
	default:
		return false
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// signalRepository implements SignalRepository
type signalRepository struct {
	mutex       sync.Mutex
	subscribers map[string]*subscription
	channelSize int
	logger      *logrus.Logger
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(channelSize int, logger *logrus.Logger) SignalRepository {
	return &signalRepository{
		subscribers: make(map[string]*subscription),
		channelSize: channelSize,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber channel
func (r *signalRepository) Subscribe() (<-chan *Notification, func(), error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	sub := &subscription{ch: make(chan *Notification, r.channelSize)}
	subscriberID := uuid.New().String()
	r.subscribers[subscriberID] = sub

	cancel := func() {
		r.mutex.Lock()
		delete(r.subscribers, subscriberID)
		r.mutex.Unlock()

		sub.close()
	}
	return sub.ch, cancel, nil
}

// Publish delivers the notification to every subscriber without blocking the
// publisher: a subscriber whose buffer is full loses the message.
func (r *signalRepository) Publish(notification *Notification) error {
	r.mutex.Lock()
	subscribers := make([]*subscription, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		subscribers = append(subscribers, sub)
	}
	r.mutex.Unlock()

	if len(subscribers) > 0 {
		r.logger.WithFields(logrus.Fields{
			"notification_id": notification.ID,
			"subscribers":     len(subscribers),
		}).Debug("Publishing notification to subscribers")
	}

	for _, sub := range subscribers {
		if !sub.send(notification) {
			r.logger.WithField("notification_id", notification.ID).
				Warn("Failed to deliver notification to subscriber (channel full or gone)")
		}
	}
	return nil
}
