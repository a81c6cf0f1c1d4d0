// Package audio chooses which audio stream of a media container is decoded
// for the waveform and fed to the recognizer.
//
// Streams tagged with the recognizer language rank first, then the
// default-flagged stream. Commentary tracks are pushed to the back.
package audio
