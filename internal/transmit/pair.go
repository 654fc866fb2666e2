package transmit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// Pairing defaults, matching what green-button OOK sockets expect while in
// learn mode.
const (
	DefaultPairRepeats  = 3
	DefaultPairInterval = time.Second
	pairSocket          = 1
)

// Confirmer asks the operator whether the socket for address switched on.
// Returning true sends the learn sequence again for the same address.
type Confirmer interface {
	Relearn(ctx context.Context, address uint32) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, address uint32) (bool, error)

// Relearn calls f.
func (f ConfirmFunc) Relearn(ctx context.Context, address uint32) (bool, error) {
	return f(ctx, address)
}

// PairOptions controls the learn sequence.
type PairOptions struct {
	Repeats  int           // ON commands per attempt (default 3)
	Interval time.Duration // gap between ON commands (default 1s)
	Clock    clockwork.Clock
	Logger   Logger
}

// PairResult summarises one pairing run.
type PairResult struct {
	Paired   []uint32       `json:"paired"`
	Attempts map[uint32]int `json:"attempts"`
}

func (o PairOptions) withDefaults() PairOptions {
	if o.Repeats <= 0 {
		o.Repeats = DefaultPairRepeats
	}
	if o.Interval < 0 {
		o.Interval = 0
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	o.Logger = orNoop(o.Logger)
	return o
}

// Pair trains sockets to respond to new house codes.
//
// For each address the socket must already be in learn mode. Pair sends ON
// to socket 1 Repeats times, Interval apart, then asks confirm whether to
// relearn. A "yes" repeats the sequence for the same address; a "no" moves
// on. Unlike a button press, pairing stops on the first transmit error or
// when ctx is cancelled, since the operator is waiting on each step.
//
// Parameters:
//   - ctx: Cancels the run between sends
//   - gw: Gateway the learn commands go through
//   - addresses: House codes to train, in order
//   - opts: Repeats, interval and clock
//   - confirm: Operator prompt
//
// Returns:
//   - *PairResult: Addresses completed so far and attempts per address
//   - error: ErrNoAddresses, a transmit error, a confirm error or ctx.Err()
func Pair(ctx context.Context, gw power.Gateway, addresses []uint32, opts PairOptions, confirm Confirmer) (*PairResult, error) {
	result := &PairResult{Attempts: make(map[uint32]int)}
	if len(addresses) == 0 {
		return result, ErrNoAddresses
	}
	opts = opts.withDefaults()

	for _, addr := range addresses {
		opts.Logger.Info("training socket", "address", formatAddress(addr))
		for {
			result.Attempts[addr]++
			if err := sendLearn(ctx, gw, addr, opts); err != nil {
				return result, err
			}

			again, err := confirm.Relearn(ctx, addr)
			if err != nil {
				return result, fmt.Errorf("confirming %s: %w", formatAddress(addr), err)
			}
			if !again {
				break
			}
		}
		result.Paired = append(result.Paired, addr)
	}
	return result, nil
}

// sendLearn sends the ON burst for one attempt.
func sendLearn(ctx context.Context, gw power.Gateway, addr uint32, opts PairOptions) error {
	cmd := power.Command{Address: addr, Socket: pairSocket, State: catalog.PowerOn}
	for i := 0; i < opts.Repeats; i++ {
		if i > 0 && opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-opts.Clock.After(opts.Interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		opts.Logger.Debug("send on", "address", formatAddress(addr), "repeat", i+1)
		if err := gw.Transmit(ctx, cmd); err != nil {
			return fmt.Errorf("pairing %s: %w", formatAddress(addr), err)
		}
	}
	return nil
}
