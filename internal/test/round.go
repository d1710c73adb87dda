package test

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/party"
	"golang.org/x/sync/errgroup"
)

// Rule describes various hooks that can be applied to a protocol execution.
type Rule interface {
	// ModifyBefore modifies r before r.Finalize() is called.
	ModifyBefore(r round.Session)
	// ModifyAfter modifies rNext, which is the round returned by r.Finalize().
	ModifyAfter(rNext round.Session)
	// ModifyContent modifies content for the message that is delivered in rNext.
	ModifyContent(rNext round.Session, to party.ID, content round.Content)
}

// Rounds finalizes every round in rounds and delivers the resulting messages to the others,
// replacing each entry with the next round.
//
// The returned bool is true once the protocol is done, either because every party produced an
// output, or because some party aborted.
func Rounds(rounds []round.Session, rule Rule) (error, bool) {
	var (
		errGroup errgroup.Group
		N        = len(rounds)
		out      = make(chan *round.Message, N*(N+1))
	)

	if _, err := checkAllRoundsSame(rounds); err != nil {
		return err, false
	}

	for idx := range rounds {
		idx := idx
		r := rounds[idx]
		errGroup.Go(func() error {
			var (
				rNew round.Session
				err  error
			)
			if rule != nil {
				rule.ModifyBefore(r)
				outFake := make(chan *round.Message, N+1)
				rNew, err = r.Finalize(outFake)
				close(outFake)
				if err != nil {
					return err
				}
				rule.ModifyAfter(rNew)
				for msg := range outFake {
					rule.ModifyContent(rNew, msg.To, msg.Content)
					out <- msg
				}
			} else {
				rNew, err = r.Finalize(out)
				if err != nil {
					return err
				}
			}

			if rNew != nil {
				rounds[idx] = rNew
			}
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return err, false
	}
	close(out)

	for _, r := range rounds {
		if _, ok := r.(*round.Abort); ok {
			return nil, true
		}
	}

	roundType, err := checkAllRoundsSame(rounds)
	if err != nil {
		return err, false
	}
	if roundType == reflect.TypeOf(&round.Output{}) {
		return nil, true
	}

	for msg := range out {
		msgBytes, err := cbor.Marshal(msg.Content)
		if err != nil {
			return err, false
		}
		for _, r := range rounds {
			m := *msg
			r := r
			if m.From == r.SelfID() || m.Content.RoundNumber() != r.Number() {
				continue
			}
			errGroup.Go(func() error {
				return deliver(r, m, msgBytes)
			})
		}
		if err = errGroup.Wait(); err != nil {
			return err, false
		}
	}

	return nil, false
}

func deliver(r round.Session, m round.Message, data []byte) error {
	if m.Broadcast {
		b, ok := r.(round.BroadcastRound)
		if !ok {
			return errors.New("broadcast message but not broadcast round")
		}
		m.Content = b.BroadcastContent()
		if err := cbor.Unmarshal(data, m.Content); err != nil {
			return err
		}
		return b.StoreBroadcastMessage(m)
	}

	if m.To != "" && m.To != r.SelfID() {
		return nil
	}
	m.Content = r.MessageContent()
	if err := cbor.Unmarshal(data, m.Content); err != nil {
		return err
	}
	if err := r.VerifyMessage(m); err != nil {
		return err
	}
	return r.StoreMessage(m)
}

func checkAllRoundsSame(rounds []round.Session) (reflect.Type, error) {
	var t reflect.Type
	for _, r := range rounds {
		t2 := reflect.TypeOf(r)
		if t == nil {
			t = t2
		} else if t != t2 {
			return t, fmt.Errorf("two different rounds: %s %s", t, t2)
		}
	}
	return t, nil
}
