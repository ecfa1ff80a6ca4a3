// Package votingrights implements the assembly voting-rights engine: the
// representation ledger, proxy delegation with OTP signatures, and
// coefficient-weighted ballots, tallies, and quorum.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition. Workers relay the outbox
// to the change feed, expire lapsed signatures, and maintain live tallies.
package votingrights
