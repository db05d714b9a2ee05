package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func sendOnce(t *testing.T, l *InMemory, from, to string, drops int64) (Confirmation, error) {
	t.Helper()
	ctx := context.Background()
	p, err := l.Autofill(ctx, Payment{Account: from, Destination: to, Amount: drops})
	if err != nil {
		t.Fatalf("autofill: %v", err)
	}
	sp, err := l.Sign(ctx, p, "sEdSeed")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return l.SubmitAndWait(ctx, sp)
}

func TestInMemoryLedger_PaymentMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	SeedAccount(l, "rSender", 10_000_000)
	SeedAccount(l, "rRecipient", 0)

	if _, err := sendOnce(t, l, "rSender", "rRecipient", 1_500_000); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	ctx := context.Background()
	from, _ := l.AccountInfo(ctx, "rSender")
	to, _ := l.AccountInfo(ctx, "rRecipient")
	if from.Balance != 10_000_000-1_500_000-InMemoryFee {
		t.Fatalf("unexpected sender balance %d", from.Balance)
	}
	if to.Balance != 1_500_000 {
		t.Fatalf("unexpected recipient balance %d", to.Balance)
	}
	if from.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", from.Sequence)
	}
}

func TestInMemoryLedger_StaleSequenceRejected(t *testing.T) {
	l := NewInMemory()
	SeedAccount(l, "rSender", 5_000_000)
	SeedAccount(l, "rRecipient", 0)
	ctx := context.Background()

	p, _ := l.Autofill(ctx, Payment{Account: "rSender", Destination: "rRecipient", Amount: 500})
	first, _ := l.Sign(ctx, p, "sEdSeed")
	second, _ := l.Sign(ctx, p, "sEdSeed")

	if _, err := l.SubmitAndWait(ctx, first); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := l.SubmitAndWait(ctx, second)
	if !IsKind(err, KindRejected) {
		t.Fatalf("expected rejection for reused sequence, got %v", err)
	}
	if len(l.Submitted()) != 1 {
		t.Fatalf("expected one applied payment, got %d", len(l.Submitted()))
	}
}

func TestInMemoryLedger_UnfundedClaimsFee(t *testing.T) {
	l := NewInMemory()
	SeedAccount(l, "rSender", 1_000)
	SeedAccount(l, "rRecipient", 0)

	_, err := sendOnce(t, l, "rSender", "rRecipient", 5_000)
	if !IsKind(err, KindRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	snap, _ := l.AccountInfo(context.Background(), "rSender")
	if snap.Balance != 1_000-InMemoryFee {
		t.Fatalf("expected fee to be claimed, balance %d", snap.Balance)
	}
}

func TestInMemoryLedger_ConcurrentReads(t *testing.T) {
	l := NewInMemory()
	SeedAccount(l, "rSender", 100_000)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.AccountInfo(ctx, "rSender"); err != nil {
				t.Errorf("read %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if l.Calls() != workers {
		t.Fatalf("expected %d calls, got %d", workers, l.Calls())
	}
}

func TestInMemoryLedger_UnknownAccount(t *testing.T) {
	l := NewInMemory()
	_, err := l.AccountInfo(context.Background(), "rNobody")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := l.TransactionStatus(context.Background(), fmt.Sprintf("%064d", 0)); !IsKind(err, KindNotFound) {
		t.Fatalf("expected txn not found, got %v", err)
	}
}
