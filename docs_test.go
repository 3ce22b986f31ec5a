package treasury_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/credit"
	"github.com/xraph/treasury/funding"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/token"
	"github.com/xraph/treasury/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Wire the settlement asset, a vesting stream, and a credit sink
		asset := token.NewMemory()
		asset.Mint("dao", types.Wad(1000000))

		stream := funding.NewStream(asset, "dao")
		streamID, err := stream.Create("treasury", types.Wad(100000),
			time.Now().UTC(), 365*24*time.Hour, 0, "maker")
		if err != nil {
			t.Fatal(err)
		}

		sink := credit.NewRegistry(asset, "sink")

		// Create engine
		eng := treasury.New(store,
			treasury.WithLogger(slog.Default()),
			treasury.WithRoles("governor", "maker", "keeper"),
			treasury.WithAsset(asset),
			treasury.WithFundingSource(stream),
			treasury.WithCreditSink(sink, sink.Account(), "upkeep-job", "dai"),
			treasury.WithSurplusSink("vow"),
		)

		// Start the engine (migrates the store)
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop(ctx)

		// Govern the parameters
		if err := eng.SetBuffer(ctx, "maker", types.Wad(0), types.Wad(20000)); err != nil {
			t.Fatal(err)
		}
		if err := eng.SetVestID(ctx, "maker", streamID); err != nil {
			t.Fatal(err)
		}

		// Record an accrued expense
		nonce, err := eng.RecordInvoice(ctx, "governor",
			treasury.Wad(1), treasury.Wad(100), "keeper gas, week 34")
		if err != nil {
			t.Fatal(err)
		}
		if nonce != 1 {
			t.Fatalf("unexpected nonce %d", nonce)
		}

		// Run a claim cycle
		rcpt, err := eng.Claim(ctx, "governor")
		if err != nil {
			t.Fatal(err)
		}
		if !rcpt.Conserved() {
			t.Fatal("receipt does not account for the full streamed amount")
		}

		// Inspect the ledger
		debt, err := eng.OutstandingDebt(ctx)
		if err != nil {
			t.Fatal(err)
		}
		_ = debt
	})

	// Test the payment adapter variant from the package docs
	t.Run("AdapterExample", func(t *testing.T) {
		store := memory.New()
		asset := token.NewMemory()
		asset.Mint("dao", types.Wad(1000000))

		stream := funding.NewStream(asset, "dao")
		streamID, err := stream.Create("adapter-account", types.Wad(100000),
			time.Now().UTC().Add(-time.Hour), 365*24*time.Hour, 0, "maker")
		if err != nil {
			t.Fatal(err)
		}

		sink := credit.NewRegistry(asset, "sink", credit.WithFee(30))

		adapter := funding.NewPaymentAdapter(stream, asset, funding.PaymentAdapterConfig{
			StreamID:     streamID,
			Account:      "adapter-account",
			Treasury:     "treasury",
			Sink:         sink,
			Job:          "upkeep-job",
			JobAsset:     "dai",
			MinPayment:   types.Wad(1),
			MaxBuffer:    types.Wad(20000),
			FeeBps:       30,
			FeeCollector: "fee-collector",
		})

		eng := treasury.New(store,
			treasury.WithRoles("governor", "maker", "keeper"),
			treasury.WithAsset(asset),
			treasury.WithPaymentAdapter(adapter),
			treasury.WithCreditSink(sink, sink.Account(), "upkeep-job", "dai"),
		)

		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop(ctx)

		if _, err := eng.Claim(ctx, "governor"); err != nil {
			t.Fatal(err)
		}
	})
}
