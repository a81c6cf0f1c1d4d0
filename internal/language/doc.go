// Package language normalizes language settings: recognizer language codes
// and human-readable target language names for translation prompts.
package language
