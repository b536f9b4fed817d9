// Package audio plays the WAV audio returned by the speech server using the
// oto/v3 library. Builds tagged nocgo get a player that always fails.
package audio
