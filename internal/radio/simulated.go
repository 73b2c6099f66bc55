package radio

import (
	"context"
	"sync"

	"github.com/muurk/wifiportal/internal/logging"
	"go.uber.org/zap"
)

// Simulated is an in-memory radio. A join succeeds after ConnectAfter polls
// of Connected when the network is listed in Networks, and never otherwise.
type Simulated struct {
	// Networks maps reachable SSIDs to their passwords. A nil map
	// accepts any network.
	Networks map[string]string
	// ConnectAfter is how many Connected calls return false before true.
	ConnectAfter int

	mu     sync.Mutex
	joined string
	polls  int
	linkUp bool
	ap     *AccessPoint
	joins  []string
	closed bool
}

var _ Radio = (*Simulated)(nil)

// NewSimulated returns a radio that can reach every network immediately.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// JoinStation records the join and resets the poll count.
func (s *Simulated) JoinStation(ctx context.Context, ssid, pass string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.joins = append(s.joins, ssid)
	s.joined = ""
	s.polls = 0
	s.linkUp = false
	s.ap = nil

	if s.Networks == nil {
		s.joined = ssid
	} else if want, ok := s.Networks[ssid]; ok && want == pass {
		s.joined = ssid
	}

	logging.Debug("Simulated station join", zap.String("ssid", ssid), zap.Bool("reachable", s.joined != ""))
	return nil
}

// Connected reports the link state of the last join.
func (s *Simulated) Connected(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.joined == "" {
		return false, nil
	}
	if s.polls < s.ConnectAfter {
		s.polls++
		return false, nil
	}
	s.linkUp = true
	return true, nil
}

// StartAccessPoint records the access point.
func (s *Simulated) StartAccessPoint(ctx context.Context, ap AccessPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.joined = ""
	s.linkUp = false
	s.ap = &ap

	logging.Debug("Simulated access point",
		zap.String("ssid", ap.SSID),
		zap.Bool("open", ap.Pass == ""),
		zap.Stringer("address", ap.Address),
	)
	return nil
}

// Close marks the radio closed.
func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// AccessPoint returns the running access point, if any.
func (s *Simulated) AccessPoint() (AccessPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ap == nil {
		return AccessPoint{}, false
	}
	return *s.ap, true
}

// Joins returns every SSID passed to JoinStation.
func (s *Simulated) Joins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.joins...)
}

// LinkUp reports whether a join completed.
func (s *Simulated) LinkUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkUp
}

// Closed reports whether Close was called.
func (s *Simulated) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
