package funding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithClock overrides the stream's time source. Tests use this to move
// accrual forward deterministically.
func WithClock(now func() time.Time) StreamOption {
	return func(s *Stream) { s.now = now }
}

// Stream is an in-memory vesting Source. Each award accrues linearly
// from its begin time to its end time: nothing is claimable before the
// cliff, accrual is pro-rata in between, and the total is capped once
// the schedule completes. Vested funds move from the funder account to
// the award's beneficiary.
type Stream struct {
	mu     sync.Mutex
	asset  token.Asset
	funder string
	now    func() time.Time
	awards map[uint64]*Award
	nextID uint64
}

var _ Source = (*Stream)(nil)

// NewStream creates a Stream paying out of the funder account.
func NewStream(asset token.Asset, funder string, opts ...StreamOption) *Stream {
	s := &Stream{
		asset:  asset,
		funder: funder,
		now:    time.Now,
		awards: make(map[uint64]*Award),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create registers a new award and returns its stream ID. IDs start at
// 1; zero is never a valid stream.
func (s *Stream) Create(beneficiary string, total types.Amount, begin time.Time, duration, cliff time.Duration, manager string) (uint64, error) {
	if total.IsNegative() {
		return 0, fmt.Errorf("funding: negative award total %s", total)
	}
	if duration < time.Second {
		return 0, fmt.Errorf("funding: award duration %s below one second", duration)
	}
	if cliff < 0 || cliff > duration {
		return 0, fmt.Errorf("funding: cliff %s outside award duration %s", cliff, duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++

	a := &Award{
		ID:          s.nextID,
		Beneficiary: beneficiary,
		Manager:     manager,
		Begin:       begin,
		Cliff:       begin.Add(cliff),
		End:         begin.Add(duration),
		Total:       total,
	}
	s.awards[a.ID] = a

	return a.ID, nil
}

// Award implements Source. Returns a copy.
func (s *Stream) Award(_ context.Context, streamID uint64) (*Award, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.awards[streamID]
	if !ok {
		return nil, ErrNoAward
	}

	cp := *a

	return &cp, nil
}

// Unpaid implements Source.
func (s *Stream) Unpaid(_ context.Context, streamID uint64) (types.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.awards[streamID]
	if !ok {
		return types.Amount{}, ErrNoAward
	}

	return s.unpaidLocked(a), nil
}

// Vest implements Source. Transfers all unpaid funds from the funder to
// the beneficiary and returns the amount moved. Vesting nothing is not
// an error.
func (s *Stream) Vest(ctx context.Context, streamID uint64) (types.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.awards[streamID]
	if !ok {
		return types.Amount{}, ErrNoAward
	}

	due := s.unpaidLocked(a)
	if due.IsZero() {
		return types.Amount{}, nil
	}

	if err := s.asset.Transfer(ctx, s.funder, a.Beneficiary, due); err != nil {
		return types.Amount{}, err
	}

	a.Claimed = a.Claimed.Add(due)

	return due, nil
}

// unpaidLocked computes accrued-but-unclaimed with the lock held.
// Nothing is claimable before the cliff.
func (s *Stream) unpaidLocked(a *Award) types.Amount {
	t := s.now()
	if t.Before(a.Cliff) {
		return types.Amount{}
	}

	return s.accrued(a, t).Sub(a.Claimed).Max(types.Amount{})
}

// accrued returns the total earned by time t under linear accrual.
func (s *Stream) accrued(a *Award, t time.Time) types.Amount {
	switch {
	case t.Before(a.Begin):
		return types.Amount{}
	case !t.Before(a.End):
		return a.Total
	default:
		elapsed := int64(t.Sub(a.Begin) / time.Second)
		span := int64(a.End.Sub(a.Begin) / time.Second)

		return a.Total.MulDiv(elapsed, span)
	}
}
