// Package model defines the LLM clarifier abstraction used for free-form
// clarification turns outside the scripted survey flow, plus provider
// adapters in sub-packages (openai, anthropic).
//
// The scripted state machine never consults a model; the clarifier only
// answers off-script respondent questions ("who is calling?", "why do you
// need this?") before the transport hands control back to the script. A
// clarifier failure degrades to the repeat-request prompt.
package model
