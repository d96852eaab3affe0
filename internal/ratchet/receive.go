package ratchet

import "securechat/internal/primitives"

// Receive opens an incoming ratchet message, transparently advancing the
// receiving chain (and, if msg carries a new DH public key, performing a
// DH ratchet step first) and buffering any message keys it skips over
// along the way.
//
// A counter at or behind what has already been processed, with no
// matching buffered skipped key, is rejected as ErrReplayOrStale without
// mutating state — replays must never succeed and must never perturb the
// ratchet for subsequent legitimate messages.
func (s *State) Receive(msg *OutgoingMessage, aad []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mk, ok := s.skipped.take(msg.DHPublic, msg.Counter); ok {
		return primitives.Open(mk[:], msg.Nonce[:], msg.Ciphertext, aad)
	}

	isNewChain := s.remoteDHPub == nil || *s.remoteDHPub != msg.DHPublic

	// step and chainKey/counter are staged locally: a failed open below must
	// leave s untouched, so nothing here is written to s until after
	// primitives.Open succeeds.
	var step *newRemoteStep
	chainKey := s.recvChainKey
	counter := s.recvCounter

	if isNewChain {
		computed, err := s.computeRatchetOnNewRemote(msg.DHPublic)
		if err != nil {
			return nil, err
		}
		step = &computed
		chainKey = &computed.recvChainKey
		counter = 0
	} else if msg.Counter < s.recvCounter {
		return nil, ErrReplayOrStale
	}

	type pendingSkip struct {
		counter uint32
		mk      [32]byte
	}
	var pending []pendingSkip

	ck := *chainKey
	for counter < msg.Counter {
		mk, nextChainKey, err := symmetricStep(ck, counter)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingSkip{counter: counter, mk: mk})
		ck = nextChainKey
		counter++
	}

	messageKey, nextChainKey, err := symmetricStep(ck, counter)
	if err != nil {
		return nil, err
	}

	plaintext, err := primitives.Open(messageKey[:], msg.Nonce[:], msg.Ciphertext, aad)
	if err != nil {
		return nil, err
	}

	if step != nil {
		s.applyRatchetStep(*step)
	}
	for _, p := range pending {
		s.skipped.put(msg.DHPublic, p.counter, p.mk)
	}
	s.recvChainKey = &nextChainKey
	s.recvCounter = counter + 1
	return plaintext, nil
}
