// Package dialogue implements the conversation state machine for scripted
// survey interviews. The Engine consumes a core.Session plus the latest
// transcribed respondent utterance and decides what the agent says next, when
// a question counts as answered, when a retry or abandonment occurs, and when
// the interview is complete.
//
// The engine never performs blocking speech or model work itself: speech
// recognition and synthesis happen in the transport layer before and after
// each Advance call. Its only judgment about an utterance is whether the
// respondent said anything at all; answers are captured verbatim.
package dialogue
