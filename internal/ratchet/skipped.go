package ratchet

// Skipped-key buffer caps: 1,000 entries globally, 100 per chain. Exceeding
// either cap evicts the oldest skipped key deterministically
// (oldest-inserted-first), bounding memory an attacker could force via
// crafted gaps in delivered counters.
const (
	maxSkippedGlobal   = 1000
	maxSkippedPerChain = 100
)

type skippedKey struct {
	chain   [32]byte
	counter uint32
}

// skippedBuffer holds out-of-order message keys, scoped by the remote DH
// public key that identifies the receiving chain they belong to. Scoping
// by chain (rather than counter alone) avoids ambiguity when a DH ratchet
// step resets the counter back to zero for a new chain.
type skippedBuffer struct {
	keys          map[skippedKey][32]byte
	order         []skippedKey
	perChainCount map[[32]byte]int
}

func newSkippedBuffer() *skippedBuffer {
	return &skippedBuffer{
		keys:          make(map[skippedKey][32]byte),
		perChainCount: make(map[[32]byte]int),
	}
}

func (b *skippedBuffer) put(chain [32]byte, counter uint32, mk [32]byte) {
	k := skippedKey{chain: chain, counter: counter}
	if _, exists := b.keys[k]; exists {
		return
	}

	for len(b.keys) >= maxSkippedGlobal {
		if !b.evictOldest() {
			break
		}
	}
	for b.perChainCount[chain] >= maxSkippedPerChain {
		if !b.evictOldestInChain(chain) {
			break
		}
	}

	b.keys[k] = mk
	b.order = append(b.order, k)
	b.perChainCount[chain]++
}

func (b *skippedBuffer) take(chain [32]byte, counter uint32) ([32]byte, bool) {
	k := skippedKey{chain: chain, counter: counter}
	mk, ok := b.keys[k]
	if !ok {
		return mk, false
	}
	delete(b.keys, k)
	b.perChainCount[chain]--
	return mk, true
}

func (b *skippedBuffer) len() int {
	return len(b.keys)
}

// evictOldest drops the single oldest live entry across all chains.
func (b *skippedBuffer) evictOldest() bool {
	for len(b.order) > 0 {
		oldest := b.order[0]
		b.order = b.order[1:]
		if _, ok := b.keys[oldest]; ok {
			delete(b.keys, oldest)
			b.perChainCount[oldest.chain]--
			return true
		}
	}
	return false
}

// evictOldestInChain drops the oldest live entry belonging to chain.
func (b *skippedBuffer) evictOldestInChain(chain [32]byte) bool {
	for i, k := range b.order {
		if k.chain != chain {
			continue
		}
		if _, ok := b.keys[k]; !ok {
			continue
		}
		delete(b.keys, k)
		b.perChainCount[chain]--
		b.order = append(b.order[:i], b.order[i+1:]...)
		return true
	}
	return false
}
