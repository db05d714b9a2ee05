package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SeedAccount is a test helper that creates or overwrites an account on the
// in-memory ledger with the given validated balance in drops.
func SeedAccount(l *InMemory, address string, drops int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[address]
	if !ok {
		sum := sha256.Sum256([]byte(address))
		acct = &memAccount{sequence: 1, index: strings.ToUpper(hex.EncodeToString(sum[:]))}
		l.accounts[address] = acct
	}
	acct.validated = drops
}

// AdvanceLedger closes n empty ledgers.
func AdvanceLedger(l *InMemory, n uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ledgerIndex += n
}

// Sequence returns the next sequence number of address.
func Sequence(l *InMemory, address string) uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[address]; ok {
		return acct.sequence
	}
	return 0
}
