// Package treasury provides a composable treasury reconciliation engine for Go applications.
//
// Treasury is designed as a library, not a service. Import it directly into your Go
// application. It provides:
//
//   - An invoice ledger with a monotonic nonce and an aggregate outstanding debt
//   - A claim cycle that pulls vested funds, nets debt, and tops up a job's
//     credit buffer inside a governed band
//   - Two funding variants: direct vesting from a stream, or delivery through a
//     payment adapter with its own min/max policy
//   - Role separation between governor (invoicing, claims), maker (parameters)
//     and keeper (automated claims)
//   - Pluggable storage (memory, SQLite, Postgres, MongoDB)
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/treasury"
//	    "github.com/xraph/treasury/store/postgres"
//	)
//
//	// Initialize store on an existing grove database handle
//	store := postgres.New(db)
//
//	// Create engine
//	eng := treasury.New(store,
//	    treasury.WithRoles("governor", "maker", "keeper"),
//	    treasury.WithAsset(asset),
//	    treasury.WithFundingSource(stream),
//	    treasury.WithCreditSink(sink, sink.Account(), "job", "dai"),
//	)
//
//	// Start the engine (migrates the store, begins background upkeep)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop(ctx)
//
// # Core Concepts
//
// Invoices record accrued expenses and grow the outstanding debt:
//
//	nonce, err := eng.RecordInvoice(ctx, "governor",
//	    treasury.Wad(1), treasury.Wad(1000), "keeper gas, week 34")
//
// Claims pull whatever the bound stream has accrued and split it:
// debt is netted first, the credit sink is topped up to the max buffer,
// and any surplus is returned. The receipt accounts for every unit:
//
//	rcpt, err := eng.Claim(ctx, "governor")
//	// rcpt.Settled + rcpt.TopUp + rcpt.Surplus == rcpt.Streamed
//
// Parameters gate the cycle. Claims streaming less than the minimum
// buffer abort; the sink is never topped above the maximum:
//
//	err := eng.SetBuffer(ctx, "maker", treasury.Wad(4000), treasury.Wad(20000))
//	err = eng.SetVestID(ctx, "maker", streamID)
//
// # Atomicity
//
// Every operation commits all of its effects or none. The invoice nonce
// and the outstanding debt live in one ledger row that stores update
// together with the entity change, so readers never observe a
// half-applied claim. All amounts use arbitrary-precision integer
// arithmetic; outstanding debt never goes negative.
//
// # TypeID
//
// Claim receipts use TypeID for globally unique, type-safe identifiers:
//
//	clm_01h2xcejqtf2nbrexx3vqjhp41  // Claim receipt ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities. Invoices instead carry
// the ledger's own monotonic nonce, which is part of the contract.
package treasury
