package protocol_test

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/musig/internal/test"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/protocol"
	musigprotocol "github.com/taurusgroup/musig/protocols/musig"
)

var message = []byte("hello")

func newHandlers(t *testing.T, N int) (map[party.ID]*protocol.MultiHandler, party.IDSlice) {
	configs, partyIDs := test.GenerateConfig(curve.Secp256k1{}, N, rand.Reader)
	handlers := make(map[party.ID]*protocol.MultiHandler, N)
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(musigprotocol.Sign(configs[id], partyIDs, message, nil), nil)
		require.NoError(t, err)
		handlers[id] = h
	}
	return handlers, partyIDs
}

// pump delivers all pending messages in a deterministic order, until no handler has anything left to send.
// modify may replace the message delivered to a given party.
func pump(handlers map[party.ID]*protocol.MultiHandler, ids party.IDSlice, modify func(to party.ID, msg *protocol.Message) *protocol.Message) {
	closed := make(map[party.ID]bool, len(ids))
	for progress := true; progress; {
		progress = false
		for _, id := range ids {
			if closed[id] {
				continue
			}
		drain:
			for {
				select {
				case msg, ok := <-handlers[id].Listen():
					if !ok {
						closed[id] = true
						break drain
					}
					progress = true
					for _, to := range ids {
						if !msg.IsFor(to) {
							continue
						}
						m := msg
						if modify != nil {
							m = modify(to, msg)
						}
						handlers[to].Accept(m)
					}
				default:
					break drain
				}
			}
		}
	}
}

func TestMultiHandler(t *testing.T) {
	handlers, ids := newHandlers(t, 3)
	pump(handlers, ids, nil)

	var first []byte
	for _, id := range ids {
		r, err := handlers[id].Result()
		require.NoError(t, err)
		require.IsType(t, &musig.Signature{}, r)
		data, err := r.(*musig.Signature).MarshalBinary()
		require.NoError(t, err)
		if first == nil {
			first = data
		}
		assert.Equal(t, first, data)
	}
}

func TestMultiHandlerCanAccept(t *testing.T) {
	handlers, ids := newHandlers(t, 3)
	a, b := handlers[ids[0]], handlers[ids[1]]

	msg := <-a.Listen()
	require.NotNil(t, msg)
	assert.True(t, b.CanAccept(msg))
	assert.False(t, a.CanAccept(msg), "own message")
	assert.False(t, b.CanAccept(nil))

	modified := func(f func(m *protocol.Message)) *protocol.Message {
		m := *msg
		f(&m)
		return &m
	}
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.SSID = []byte("other") })))
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.Protocol = "other" })))
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.From = "unknown" })))
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.To = ids[2] })))
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.Data = nil })))
	assert.False(t, b.CanAccept(modified(func(m *protocol.Message) { m.RoundNumber = 5 })))
}

func TestMultiHandlerStop(t *testing.T) {
	handlers, ids := newHandlers(t, 2)
	h := handlers[ids[0]]
	h.Stop()

	// the round 2 broadcast, followed by the abort message
	var last *protocol.Message
	for msg := range h.Listen() {
		last = msg
	}
	require.NotNil(t, last)
	assert.EqualValues(t, 0, last.RoundNumber)

	_, err := h.Result()
	assert.ErrorIs(t, err, protocol.ErrAbortedByUser)

	// the other party aborts when receiving the abort message
	other := handlers[ids[1]]
	other.Accept(last)
	_, err = other.Result()
	assert.ErrorIs(t, err, protocol.ErrAbortedByPeer)

	// stopping twice is a no-op
	h.Stop()
}

func TestMultiHandlerDuplicate(t *testing.T) {
	handlers, ids := newHandlers(t, 3)
	a, b := handlers[ids[0]], handlers[ids[1]]

	msg := <-a.Listen()
	b.Accept(msg)
	b.Accept(msg)

	_, err := b.Result()
	var protocolErr protocol.Error
	require.True(t, errors.As(err, &protocolErr))
	assert.ErrorIs(t, err, protocol.ErrDuplicateMessage)
	assert.Equal(t, []party.ID{ids[0]}, protocolErr.Culprits)
}

// TestMultiHandlerBroadcastVerification makes one party believe that another party
// received different broadcast messages in the previous round.
func TestMultiHandlerBroadcastVerification(t *testing.T) {
	handlers, ids := newHandlers(t, 3)
	from, victim := ids[0], ids[1]

	pump(handlers, ids, func(to party.ID, msg *protocol.Message) *protocol.Message {
		if msg.From != from || to != victim || msg.RoundNumber != 3 {
			return msg
		}
		m := *msg
		m.BroadcastVerification = make([]byte, len(msg.BroadcastVerification))
		return &m
	})

	_, err := handlers[victim].Result()
	assert.ErrorIs(t, err, protocol.ErrBroadcastVerification)
	for _, id := range ids {
		_, err = handlers[id].Result()
		assert.Error(t, err, "party %s should have aborted", id)
	}
}

func TestMessageHash(t *testing.T) {
	msg := &protocol.Message{
		SSID:        []byte("ssid"),
		From:        "a",
		Protocol:    "test",
		RoundNumber: 2,
		Data:        []byte{1, 2, 3},
		Broadcast:   true,
	}
	h := msg.Hash()
	assert.Equal(t, h, msg.Hash())

	other := *msg
	other.Broadcast = false
	assert.NotEqual(t, h, other.Hash())

	other = *msg
	other.To = "b"
	assert.NotEqual(t, h, other.Hash())
	assert.True(t, other.IsFor("b"))
	assert.False(t, other.IsFor("c"))
	assert.False(t, msg.IsFor("a"))
}
