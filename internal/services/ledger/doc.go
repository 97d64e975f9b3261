// Package ledger implements the balance aggregate: the per-user
// summary of available, pending, disputed and lifetime-earned funds,
// kept consistent with the append-mostly ledger transaction history.
//
// All balance mutation flows through Apply, which locks the balance
// row, runs the caller's mutation together with its paired transaction
// insert in one database transaction, and rejects any outcome that
// would drive a balance field negative. The workflow services
// (withdrawal, settlement, refund, dispute) build on this primitive
// and own all other business validation.
package ledger
