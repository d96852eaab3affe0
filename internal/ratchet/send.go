package ratchet

import "securechat/internal/primitives"

// OutgoingMessage is a sealed ratchet message plus the header fields a
// receiver needs before it can attempt to decrypt: the sender's current
// ratchet DH public key and its counter within the current sending chain.
type OutgoingMessage struct {
	DHPublic   [32]byte
	Counter    uint32
	Nonce      [12]byte
	Ciphertext []byte
}

// Send advances the sending chain by one step and seals plaintext under
// the resulting message key. aad is bound into the AEAD tag but not
// encrypted — internal/chat passes the conversation ID here.
func (s *State) Send(plaintext, aad []byte) (*OutgoingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messageKey, nextChainKey, err := symmetricStep(*s.sendChainKey, s.sendCounter)
	if err != nil {
		return nil, err
	}

	nonce, err := primitives.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := primitives.Seal(messageKey[:], nonce, plaintext, aad)
	if err != nil {
		return nil, err
	}

	out := &OutgoingMessage{
		DHPublic: s.localDHPub,
		Counter:  s.sendCounter,
	}
	copy(out.Nonce[:], nonce)
	out.Ciphertext = ciphertext

	s.sendChainKey = &nextChainKey
	s.sendCounter++
	return out, nil
}
