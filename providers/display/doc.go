// Package display defines the output side of the chat loop.
//
// A Sink receives prompts, streamed content fragments and turn failures.
// The console subpackage renders them to a terminal with colored role
// prefixes.
package display
