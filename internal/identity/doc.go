// Package identity resolves locally-scanned movie folders to stable
// external identities (letterboxd slug, IMDB and TMDB ids).
//
// Resolution runs a strict cascade per folder: cached record, manual
// override, embedded metadata id, fuzzy title match against the known
// catalog, then live letterboxd search. The first stage that produces a
// record wins and the result is cached so each folder is resolved at most
// once across runs.
package identity
