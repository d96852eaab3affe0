// Package ratchet implements the Double Ratchet: per-conversation root and
// chain keys that advance on every send and receive, tolerating
// out-of-order delivery within a bounded skipped-key window.
package ratchet

import (
	"sync"

	"securechat/internal/primitives"
)

// State is the long-lived per-conversation ratchet state. A single mutex
// enforces that exactly one send or receive operation mutates a given
// State at a time; reads of immutable fields elsewhere in the system never
// touch this lock.
type State struct {
	mu sync.Mutex

	rootKey [32]byte

	sendChainKey *[32]byte
	recvChainKey *[32]byte

	sendCounter uint32
	recvCounter uint32

	localDHPriv [32]byte
	localDHPub  [32]byte
	remoteDHPub *[32]byte

	skipped *skippedBuffer
}

// Initialize builds ratchet state for the party that just ran EstablishInitial:
// sharedSecret is the X3DH output, remoteDHPublic is the recipient's signed
// prekey public that fed it. A fresh local ratchet key pair is generated
// immediately so a sending chain exists before the first Send call; the
// receiving chain stays empty until the other side's first reply.
func Initialize(sharedSecret [32]byte, remoteDHPublic [32]byte) (*State, error) {
	s := &State{
		rootKey: sharedSecret,
		skipped: newSkippedBuffer(),
	}

	localPriv, localPub, err := primitives.GenerateDHKeyPair()
	if err != nil {
		return nil, err
	}
	newRoot, sendChain, err := deriveChain(s.rootKey, localPriv, remoteDHPublic)
	if err != nil {
		return nil, err
	}

	s.rootKey = newRoot
	s.sendChainKey = &sendChain
	s.localDHPriv = localPriv
	s.localDHPub = localPub
	s.remoteDHPub = &remoteDHPublic
	return s, nil
}

// NewResponderState builds ratchet state for the party whose published DH
// public key (typically a signed prekey) the initiator's EstablishInitial
// consumed: localPriv/localPub is that same key pair, reused rather than
// discarded, so the initiator's first message lands against a chain the
// responder can actually derive. Neither chain exists yet — both appear the
// moment the first inbound message reaches Receive.
func NewResponderState(sharedSecret [32]byte, localPriv, localPub [32]byte) *State {
	return &State{
		rootKey:     sharedSecret,
		localDHPriv: localPriv,
		localDHPub:  localPub,
		skipped:     newSkippedBuffer(),
	}
}

// Snapshot is the exported, persistable form of a State. It deliberately
// omits the skipped-message-key buffer: those keys exist to tolerate
// reordering within a single process's uptime, and losing them across a
// restart means a message that was already out-of-order before shutdown
// can no longer be decrypted after.
type Snapshot struct {
	RootKey      [32]byte
	SendChainKey *[32]byte
	RecvChainKey *[32]byte
	SendCounter  uint32
	RecvCounter  uint32
	LocalDHPriv  [32]byte
	LocalDHPub   [32]byte
	RemoteDHPub  *[32]byte
}

// Export snapshots the state for persistence.
func (s *State) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		RootKey:      s.rootKey,
		SendChainKey: s.sendChainKey,
		RecvChainKey: s.recvChainKey,
		SendCounter:  s.sendCounter,
		RecvCounter:  s.recvCounter,
		LocalDHPriv:  s.localDHPriv,
		LocalDHPub:   s.localDHPub,
		RemoteDHPub:  s.remoteDHPub,
	}
}

// Import rebuilds a State from a Snapshot previously produced by Export.
// The skipped-message-key buffer starts empty.
func Import(snap Snapshot) *State {
	return &State{
		rootKey:      snap.RootKey,
		sendChainKey: snap.SendChainKey,
		recvChainKey: snap.RecvChainKey,
		sendCounter:  snap.SendCounter,
		recvCounter:  snap.RecvCounter,
		localDHPriv:  snap.LocalDHPriv,
		localDHPub:   snap.LocalDHPub,
		remoteDHPub:  snap.RemoteDHPub,
		skipped:      newSkippedBuffer(),
	}
}

// LocalDHPublic returns the ratchet's current sending DH public key, the
// value attached to outgoing envelope headers.
func (s *State) LocalDHPublic() [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localDHPub
}

// SendCounter returns n_s, the next-to-be-used send message number.
func (s *State) SendCounter() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCounter
}

// RecvCounter returns n_r, the next expected receive message number.
func (s *State) RecvCounter() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recvCounter
}

// symmetricStep derives (message key, next chain key) from a chain key and
// its message counter: MK_n = HKDF(CK, "mk"||encode(n), 32); CK' = HKDF(CK,
// "ck", 32). encode(n) is a 4-byte big-endian counter, part of the wire
// contract rather than an incidental implementation choice.
func symmetricStep(chainKey [32]byte, counter uint32) (messageKey, nextChainKey [32]byte, err error) {
	info := append([]byte("mk"), encodeCounter(counter)...)
	mk, err := primitives.HKDFExpand(chainKey[:], nil, info, 32)
	if err != nil {
		return messageKey, nextChainKey, err
	}
	ck, err := primitives.HKDFExpand(chainKey[:], nil, []byte("ck"), 32)
	if err != nil {
		return messageKey, nextChainKey, err
	}
	copy(messageKey[:], mk)
	copy(nextChainKey[:], ck)
	return messageKey, nextChainKey, nil
}

func encodeCounter(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

// deriveChain mixes a fresh DH output against the current root key to
// produce a new root key and a single new chain key. The DH output feeds
// HKDF alongside the old root key rather than a static label alone — a
// compromised stale root key must not compromise the chain a new DH output
// produces.
func deriveChain(rootKey, localPriv, remotePublic [32]byte) (newRoot, chainKey [32]byte, err error) {
	dhOutput, err := primitives.DH(localPriv, remotePublic)
	if err != nil {
		return newRoot, chainKey, err
	}
	rootOut, err := primitives.HKDFExpand(dhOutput[:], rootKey[:], []byte("ratchet-root"), 32)
	if err != nil {
		return newRoot, chainKey, err
	}
	chainOut, err := primitives.HKDFExpand(dhOutput[:], rootKey[:], []byte("ratchet-chain"), 32)
	if err != nil {
		return newRoot, chainKey, err
	}
	copy(newRoot[:], rootOut)
	copy(chainKey[:], chainOut)
	return newRoot, chainKey, nil
}

// newRemoteStep stages the outcome of computeRatchetOnNewRemote so Receive
// can discard it on a failed open instead of committing it to s.
type newRemoteStep struct {
	rootKey      [32]byte
	recvChainKey [32]byte
	sendChainKey [32]byte
	localDHPriv  [32]byte
	localDHPub   [32]byte
	remoteDHPub  [32]byte
}

// computeRatchetOnNewRemote runs when an inbound message carries a DH
// public the state has not seen before (including the very first message a
// responder ever receives). It performs two chain derivations in sequence:
// first against the *existing* local key pair to recover the chain the
// sender just used — this is what lets the two sides agree despite
// deriving independently, since DH(a, B) == DH(b, A) — then against a
// freshly generated local key pair to establish this side's own next
// sending chain. Both derivations update the root key in turn, matching how
// the chain keys themselves compound across ratchet steps. It reads s but
// does not mutate it; the caller commits the returned step only once it
// knows the message that triggered it actually decrypts.
func (s *State) computeRatchetOnNewRemote(newRemotePublic [32]byte) (newRemoteStep, error) {
	root1, recvChain, err := deriveChain(s.rootKey, s.localDHPriv, newRemotePublic)
	if err != nil {
		return newRemoteStep{}, err
	}

	localPriv, localPub, err := primitives.GenerateDHKeyPair()
	if err != nil {
		return newRemoteStep{}, err
	}
	root2, sendChain, err := deriveChain(root1, localPriv, newRemotePublic)
	if err != nil {
		return newRemoteStep{}, err
	}

	return newRemoteStep{
		rootKey:      root2,
		recvChainKey: recvChain,
		sendChainKey: sendChain,
		localDHPriv:  localPriv,
		localDHPub:   localPub,
		remoteDHPub:  newRemotePublic,
	}, nil
}

// applyRatchetStep commits a previously computed newRemoteStep to s. Callers
// must only invoke this once the inbound message that produced step has
// been verified to decrypt.
func (s *State) applyRatchetStep(step newRemoteStep) {
	s.rootKey = step.rootKey
	s.recvChainKey = &step.recvChainKey
	s.recvCounter = 0
	s.sendChainKey = &step.sendChainKey
	s.sendCounter = 0
	s.localDHPriv = step.localDHPriv
	s.localDHPub = step.localDHPub
	s.remoteDHPub = &step.remoteDHPub
}
