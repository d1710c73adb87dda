package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/musig/internal/round"
	"github.com/taurusgroup/musig/pkg/hash"
	"github.com/taurusgroup/musig/pkg/party"
)

// StartFunc is function that creates the first round of a protocol.
// It returns the first round initialized with the session information.
// If the creation fails (likely due to misconfiguration), and error is returned.
//
// An optional sessionID can be provided, which should unique among all protocol executions.
type StartFunc func(sessionID []byte) (round.Session, error)

// Handler represents some kind of handler for a protocol.
type Handler interface {
	// Result should return the result of running the protocol, or an error
	Result() (interface{}, error)
	// Listen returns a channel which will receive new messages
	Listen() <-chan *Message
	// Stop should abort the protocol, and close the channel returned by Listen.
	Stop()
	// CanAccept checks whether or not a message can be accepted at the current point in the protocol.
	CanAccept(msg *Message) bool
	// Accept advances the protocol using a message.
	Accept(msg *Message)
}

// HandlerOption configures a MultiHandler.
type HandlerOption func(*MultiHandler)

// WithLogger sets the logger used by the handler.
// The protocol, party and round fields are added to every entry.
func WithLogger(logger zerolog.Logger) HandlerOption {
	return func(h *MultiHandler) {
		h.log = logger
	}
}

// MultiHandler represents an execution of a given protocol.
// It provides a simple interface for the user to receive/deliver protocol messages.
type MultiHandler struct {
	currentRound    round.Session
	rounds          map[round.Number]round.Session
	err             *Error
	result          interface{}
	messages        map[round.Number]map[party.ID]*Message
	broadcast       map[round.Number]map[party.ID]*Message
	broadcastHashes map[round.Number][]byte
	out             chan *Message
	log             zerolog.Logger
	mtx             sync.Mutex
}

// NewMultiHandler expects a StartFunc for the desired protocol. It returns a handler that the user can interact with.
func NewMultiHandler(create StartFunc, sessionID []byte, opts ...HandlerOption) (*MultiHandler, error) {
	r, err := create(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}
	h := &MultiHandler{
		currentRound:    r,
		rounds:          map[round.Number]round.Session{r.Number(): r},
		messages:        newQueue(r.OtherPartyIDs(), r.FinalRoundNumber()),
		broadcast:       newQueue(r.OtherPartyIDs(), r.FinalRoundNumber()),
		broadcastHashes: map[round.Number][]byte{},
		out:             make(chan *Message, 2*r.N()),
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().
		Str("protocol", r.ProtocolID()).
		Str("party", string(r.SelfID())).
		Logger()

	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.log.Info().Int("parties", r.N()).Msg("starting protocol")
	h.finalize()
	return h, nil
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (h *MultiHandler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, *h.err
	}
	return nil, errors.New("protocol: not finished")
}

// Listen returns a channel with outgoing messages that must be sent to other parties.
// The message received should be _reliably_ broadcast if msg.Broadcast is true.
// The channel is closed when either an error occurs or the protocol detects an error.
func (h *MultiHandler) Listen() <-chan *Message {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.out
}

// CanAccept returns true if the message is designated for this protocol protocol execution.
func (h *MultiHandler) CanAccept(msg *Message) bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.canAccept(msg)
}

func (h *MultiHandler) canAccept(msg *Message) bool {
	r := h.currentRound
	if msg == nil {
		return false
	}
	// are we the intended recipient
	if !msg.IsFor(r.SelfID()) {
		return false
	}
	// is the protocol ID correct
	if msg.Protocol != r.ProtocolID() {
		return false
	}
	// check for same SSID
	if !bytes.Equal(msg.SSID, r.SSID()) {
		return false
	}
	// do we know the sender
	if !r.PartyIDs().Contains(msg.From) {
		return false
	}

	// data is cannot be nil
	if msg.Data == nil {
		return false
	}

	// check if message for unexpected round
	if msg.RoundNumber > r.FinalRoundNumber() {
		return false
	}

	if msg.RoundNumber < r.Number() && msg.RoundNumber > 0 {
		return false
	}

	return true
}

// Accept tries to process the given message. If an abort occurs, the channel returned by Listen() is closed,
// and an error is returned by Result().
//
// This function may be called concurrently from different threads but may block until all previous calls have finished.
func (h *MultiHandler) Accept(msg *Message) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	// exit early if the message is bad, or if we are already done
	if h.err != nil || h.result != nil {
		return
	}
	if !h.canAccept(msg) {
		if msg != nil {
			h.log.Debug().Stringer("msg", msg).Msg("message rejected")
		}
		return
	}

	// a msg with roundNumber 0 is considered an abort from another party
	if msg.RoundNumber == 0 {
		h.abort(fmt.Errorf("%w: %s: %q", ErrAbortedByPeer, msg.From, msg.Data))
		return
	}

	if h.duplicate(msg) {
		h.abort(ErrDuplicateMessage, msg.From)
		return
	}

	h.store(msg)
	if h.currentRound.Number() != msg.RoundNumber {
		return
	}

	if msg.Broadcast {
		if err := h.verifyBroadcastMessage(msg); err != nil {
			h.abort(err, msg.From)
			return
		}
	} else {
		if err := h.verifyMessage(msg); err != nil {
			h.abort(err, msg.From)
			return
		}
	}

	h.finalize()
}

func (h *MultiHandler) verifyBroadcastMessage(msg *Message) error {
	r, ok := h.rounds[msg.RoundNumber]
	if !ok {
		return nil
	}

	// try to convert round to a broadcast round
	b, ok := r.(round.BroadcastRound)
	if !ok {
		return errors.New("protocol: got broadcast message when none was expected")
	}

	roundMsg, err := getRoundMessage(msg, r)
	if err != nil {
		return err
	}

	// store the broadcast message for this round
	if err = b.StoreBroadcastMessage(roundMsg); err != nil {
		return fmt.Errorf("protocol: failed to store broadcast message: %w", err)
	}

	// if the round only expected a broadcast message, we can safely return
	if !expectsNormalMessage(r) {
		return nil
	}

	// otherwise, we can try to handle the p2p message that may be stored.
	msg = h.messages[msg.RoundNumber][msg.From]
	if msg == nil {
		return nil
	}

	return h.verifyMessage(msg)
}

// verifyMessage tries to handle a normal (non reliably broadcast) message for this current round.
func (h *MultiHandler) verifyMessage(msg *Message) error {
	// we simply return if we haven't received the appropriate broadcast message
	if !h.receivedBroadcast(msg.RoundNumber, msg.From) {
		return nil
	}

	r, ok := h.rounds[msg.RoundNumber]
	if !ok {
		return nil
	}

	roundMsg, err := getRoundMessage(msg, r)
	if err != nil {
		return err
	}

	if err = r.VerifyMessage(roundMsg); err != nil {
		return fmt.Errorf("protocol: message verification failed: %w", err)
	}

	if err = r.StoreMessage(roundMsg); err != nil {
		return fmt.Errorf("protocol: message store failed: %w", err)
	}

	return nil
}

func (h *MultiHandler) finalize() {
	// only finalize if we have received all messages
	if !h.receivedAll() {
		return
	}
	if !h.checkBroadcastHash() {
		h.abort(ErrBroadcastVerification)
		return
	}

	// the current round can handle at most one message per party
	out := make(chan *round.Message, h.currentRound.N()+1)
	r, err := h.currentRound.Finalize(out)
	close(out)
	// either we got an error due to some problem on our end (sampling etc)
	// or the new round is nil (should not happen)
	if r == nil && err == nil {
		err = errors.New("protocol: round returned no successor")
	}
	if err != nil {
		h.abort(err, h.currentRound.SelfID())
		return
	}

	// forward messages with the correct header.
	for roundMsg := range out {
		data, err := cbor.Marshal(roundMsg.Content)
		if err != nil {
			panic(fmt.Errorf("failed to marshal round message: %w", err))
		}
		msg := &Message{
			SSID:                  r.SSID(),
			From:                  r.SelfID(),
			To:                    roundMsg.To,
			Protocol:              r.ProtocolID(),
			RoundNumber:           roundMsg.Content.RoundNumber(),
			Data:                  data,
			Broadcast:             roundMsg.Broadcast,
			BroadcastVerification: h.broadcastHashes[r.Number()-1],
		}
		if msg.Broadcast {
			h.store(msg)
		}
		h.out <- msg
	}

	roundNumber := r.Number()
	// if we get a round with the same number, we can safely assume that we got the same one.
	if _, ok := h.rounds[roundNumber]; !ok {
		h.rounds[roundNumber] = r
		h.currentRound = r
		h.log.Debug().Int("round", int(roundNumber)).Msg("advanced round")
	}

	// either we get the current round, the next one, or one of the two final ones
	switch R := r.(type) {
	// An abort happened
	case *round.Abort:
		h.abort(R.Err, R.Culprits...)
		return
	// We have the result
	case *round.Output:
		h.result = R.Result
		h.log.Info().Msg("protocol finished")
		h.abort(nil)
		return
	default:
	}

	if _, ok := r.(round.BroadcastRound); ok {
		// handle queued broadcast messages, which will then check the subsequent normal message
		for id, m := range h.broadcast[roundNumber] {
			if m == nil || id == r.SelfID() {
				continue
			}
			// if false, we aborted and so we return
			if err = h.verifyBroadcastMessage(m); err != nil {
				h.abort(err, m.From)
				return
			}
		}
	} else {
		// handle simple queued messages
		for _, m := range h.messages[roundNumber] {
			if m == nil {
				continue
			}
			// if false, we aborted and so we return
			if err = h.verifyMessage(m); err != nil {
				h.abort(err, m.From)
				return
			}
		}
	}

	// we only do this if the current round has changed
	h.finalize()
}

func (h *MultiHandler) abort(err error, culprits ...party.ID) {
	if err != nil {
		h.err = &Error{
			RoundNumber: h.currentRound.Number(),
			Culprits:    culprits,
			Err:         err,
		}
		h.log.Error().Err(err).Strs("culprits", idStrings(culprits)).Msg("protocol aborted")
		select {
		case h.out <- &Message{
			SSID:     h.currentRound.SSID(),
			From:     h.currentRound.SelfID(),
			Protocol: h.currentRound.ProtocolID(),
			Data:     []byte(h.err.Error()),
		}:
		default:
		}
	}
	close(h.out)
}

// Stop cancels the current execution of the protocol, and alerts the other users.
func (h *MultiHandler) Stop() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.err != nil || h.result != nil {
		return
	}
	h.abort(ErrAbortedByUser)
}

func expectsNormalMessage(r round.Session) bool {
	return r.MessageContent() != nil
}

func (h *MultiHandler) receivedBroadcast(number round.Number, from party.ID) bool {
	if _, ok := h.rounds[number].(round.BroadcastRound); !ok {
		return true
	}
	return h.broadcast[number][from] != nil
}

func (h *MultiHandler) receivedAll() bool {
	r := h.currentRound
	number := r.Number()
	// check all broadcast messages
	if _, ok := r.(round.BroadcastRound); ok {
		if h.broadcast[number] == nil {
			return true
		}
		for _, id := range r.PartyIDs() {
			msg := h.broadcast[number][id]
			if msg == nil {
				return false
			}
		}

		// create hash of all message for this round
		if h.broadcastHashes[number] == nil {
			hashState := r.Hash()
			for _, id := range r.PartyIDs() {
				msg := h.broadcast[number][id]
				_ = hashState.WriteAny(&hash.BytesWithDomain{
					TheDomain: "Message",
					Bytes:     msg.Hash(),
				})
			}
			h.broadcastHashes[number] = hashState.Sum()
		}
	}

	// check all normal messages
	if expectsNormalMessage(r) {
		if h.messages[number] == nil {
			return true
		}
		for _, id := range r.OtherPartyIDs() {
			if h.messages[number][id] == nil {
				return false
			}
		}
	}
	return true
}

// checkBroadcastHash verifies that every message of the current round was sent by a party
// which received the same broadcast messages in the previous round as we did.
func (h *MultiHandler) checkBroadcastHash() bool {
	number := h.currentRound.Number()
	previousHash := h.broadcastHashes[number-1]
	if previousHash == nil {
		return true
	}

	for _, msg := range h.messages[number] {
		if msg != nil && !bytes.Equal(previousHash, msg.BroadcastVerification) {
			return false
		}
	}
	for _, msg := range h.broadcast[number] {
		if msg != nil && !bytes.Equal(previousHash, msg.BroadcastVerification) {
			return false
		}
	}
	return true
}

func (h *MultiHandler) duplicate(msg *Message) bool {
	if msg.RoundNumber == 0 {
		return false
	}
	var q map[party.ID]*Message
	if msg.Broadcast {
		q = h.broadcast[msg.RoundNumber]
	} else {
		q = h.messages[msg.RoundNumber]
	}
	// technically, we already received the nil message
	if q == nil {
		return true
	}
	return q[msg.From] != nil
}

func (h *MultiHandler) store(msg *Message) {
	if msg.Broadcast {
		h.broadcast[msg.RoundNumber][msg.From] = msg
	} else {
		h.messages[msg.RoundNumber][msg.From] = msg
	}
}

// getRoundMessage attempts to unmarshal a raw Message for round `r` in a round.Message.
// If an error is returned, we should abort.
func getRoundMessage(msg *Message, r round.Session) (round.Message, error) {
	var content round.Content

	// there are two possible content messages
	if msg.Broadcast {
		b, ok := r.(round.BroadcastRound)
		if !ok {
			return round.Message{}, errors.New("protocol: got broadcast message when none was expected")
		}
		content = b.BroadcastContent()
	} else {
		content = r.MessageContent()
	}
	if content == nil {
		return round.Message{}, round.ErrInvalidContent
	}

	// unmarshal message
	if err := cbor.Unmarshal(msg.Data, content); err != nil {
		return round.Message{}, fmt.Errorf("protocol: failed to unmarshal: %w", err)
	}
	roundMsg := round.Message{
		From:      msg.From,
		To:        msg.To,
		Content:   content,
		Broadcast: msg.Broadcast,
	}
	return roundMsg, nil
}

// String implements fmt.Stringer.
func (h *MultiHandler) String() string {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return fmt.Sprintf("party: %s, protocol: %s, round: %d", h.currentRound.SelfID(), h.currentRound.ProtocolID(), h.currentRound.Number())
}

func newQueue(senders []party.ID, rounds round.Number) map[round.Number]map[party.ID]*Message {
	n := len(senders)
	q := make(map[round.Number]map[party.ID]*Message, rounds)
	for i := round.Number(2); i <= rounds; i++ {
		q[i] = make(map[party.ID]*Message, n)
		for _, id := range senders {
			q[i][id] = nil
		}
	}
	return q
}

func idStrings(ids []party.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
