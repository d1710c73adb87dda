// Command example runs a MuSig signing ceremony between parties in the same process.
package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/taurusgroup/musig/internal/test"
	"github.com/taurusgroup/musig/pkg/math/curve"
	"github.com/taurusgroup/musig/pkg/musig"
	"github.com/taurusgroup/musig/pkg/party"
	"github.com/taurusgroup/musig/pkg/pool"
	"github.com/taurusgroup/musig/pkg/protocol"
	musigprotocol "github.com/taurusgroup/musig/protocols/musig"
	"golang.org/x/sync/errgroup"
)

func Sign(c *musigprotocol.Config, signers party.IDSlice, m []byte, sessionID []byte, n *test.Network, pl *pool.Pool) (*musig.Signature, error) {
	h, err := protocol.NewMultiHandler(musigprotocol.Sign(c, signers, m, pl), sessionID, protocol.WithLogger(getLogger(string(c.ID))))
	if err != nil {
		return nil, err
	}
	test.HandlerLoop(c.ID, h, n)

	r, err := h.Result()
	if err != nil {
		return nil, err
	}
	sig := r.(*musig.Signature)

	public, err := musigprotocol.AggregatedKey(c, signers)
	if err != nil {
		return nil, err
	}
	if err = sig.Verify(musig.SigningTranscript(m), public); err != nil {
		return nil, fmt.Errorf("failed to verify musig signature: %w", err)
	}
	return sig, nil
}

func run(group curve.Curve, N, sessions int, message []byte) error {
	log := getLogger("main")

	pl := pool.NewPool(0)
	defer pl.TearDown()

	configs, ids := test.GenerateConfig(group, N, rand.Reader)
	public, err := musigprotocol.AggregatedKey(configs[ids[0]], ids)
	if err != nil {
		return err
	}
	log.Info().Str("group", group.Name()).Int("parties", N).Stringer("key", public).Msg("aggregated key")

	for s := 0; s < sessions; s++ {
		sessionID := []byte(fmt.Sprintf("session %d", s))
		n := test.NewNetwork(ids)
		signatures := make([]*musig.Signature, N)

		var eg errgroup.Group
		for i, id := range ids {
			i, id := i, id
			eg.Go(func() error {
				sig, err := Sign(configs[id], ids, message, sessionID, n, pl)
				if err != nil {
					return fmt.Errorf("party %s: %w", id, err)
				}
				signatures[i] = sig
				return nil
			})
		}
		if err = eg.Wait(); err != nil {
			return err
		}

		data, err := signatures[0].MarshalBinary()
		if err != nil {
			return err
		}
		for _, sig := range signatures[1:] {
			other, err := sig.MarshalBinary()
			if err != nil {
				return err
			}
			if string(other) != string(data) {
				return errors.New("parties produced different signatures")
			}
		}
		log.Info().Int("session", s).Hex("signature", data).Msg("signed")
	}
	return nil
}

func main() {
	var (
		N        = flag.Int("n", 3, "number of signers")
		group    = flag.String("curve", curve.Secp256k1{}.Name(), "group used for the keys")
		sessions = flag.Int("sessions", 1, "number of signatures to produce")
		message  = flag.String("message", "message to sign", "message to sign")
	)
	flag.Parse()

	g, err := curve.FromName(*group)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *N < 1 {
		fmt.Fprintln(os.Stderr, "at least one signer is required")
		os.Exit(2)
	}

	if err = run(g, *N, *sessions, []byte(*message)); err != nil {
		log := getLogger("main")
		log.Error().Err(err).Msg("ceremony failed")
		os.Exit(1)
	}
}
