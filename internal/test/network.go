package test

import (
	"sync"

	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/protocol"
)

// Network is an in memory transport between handlers, where every message is delivered to all the parties it is for.
//
// A Network can optionally intercept messages before they are delivered.
type Network struct {
	parties        party.IDSlice
	listenChannels map[party.ID]chan *protocol.Message
	done           chan struct{}
	intercept      func(msg *protocol.Message) *protocol.Message
	mtx            sync.Mutex
}

// NewNetwork returns a Network between parties.
func NewNetwork(parties party.IDSlice) *Network {
	N := len(parties)
	n := &Network{
		parties:        parties,
		listenChannels: make(map[party.ID]chan *protocol.Message, N),
		done:           make(chan struct{}),
	}
	for _, id := range parties {
		n.listenChannels[id] = make(chan *protocol.Message, 4*N*N)
	}
	return n
}

// Intercept sets a function which is applied to every message sent afterwards.
// If it returns nil, the message is dropped.
func (n *Network) Intercept(f func(msg *protocol.Message) *protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.intercept = f
}

// Next returns the channel of messages for id.
func (n *Network) Next(id party.ID) <-chan *protocol.Message {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	c, ok := n.listenChannels[id]
	if !ok {
		closed := make(chan *protocol.Message)
		close(closed)
		return closed
	}
	return c
}

// Send delivers msg to every party still listening.
func (n *Network) Send(msg *protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if n.intercept != nil {
		if msg = n.intercept(msg); msg == nil {
			return
		}
	}
	for id, c := range n.listenChannels {
		if msg.IsFor(id) {
			select {
			case c <- msg:
			default:
			}
		}
	}
}

// Done removes id from the network, and returns a channel which is closed once all parties are done.
func (n *Network) Done(id party.ID) chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if _, ok := n.listenChannels[id]; ok {
		delete(n.listenChannels, id)
		if len(n.listenChannels) == 0 {
			close(n.done)
		}
	}
	return n.done
}
