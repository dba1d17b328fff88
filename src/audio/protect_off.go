//go:build !synthdebug

package audio

const debugChecks = false
