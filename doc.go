// Package portfolio provides the types and functions to track a personal
// portfolio of crypto currencies and precious metals. It is designed to be
// local-first: holdings live in an on-device store and prices are refreshed
// from public price APIs on demand.
//
// The core functionalities include:
//   - Assets: the held units of crypto or metal, their amount and last known
//     price, including user-defined metal products priced from spot.
//   - Price Sources: a small interface to quote prices in batch, and a mux to
//     route identifiers to the right provider.
//   - Holdings: the aggregate value of the portfolio, by asset and category.
//   - Settings: the user display preferences, with their defaults.
//   - Import/Export: a human-readable JSONL backup format for assets.
//
// This package serves as the foundational logic for the `swan` command-line
// tool. Persistence lives in the store package, price refresh in pricesync.
package portfolio
