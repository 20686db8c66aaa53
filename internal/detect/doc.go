// Package detect implements the blocker detection core: the signature rule
// matcher, the provider orchestrator, and the weighted consensus scorer that
// folds rule, vision, and language-model signals into one confidence value.
//
// The package is deliberately free of transport and persistence concerns.
// Providers reach it through narrow interfaces, failures degrade the score
// instead of propagating, and all intermediate state (SignalScores) lives
// only for the duration of one detection attempt.
package detect
