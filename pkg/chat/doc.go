// Package chat defines the conversation state shared by all agents:
// a message transcript, the classification of the latest input, scratch
// data gathered while handling it, and the outgoing response. The State
// type satisfies threadflow.State so agent graphs can checkpoint and
// fault-route it without conversion.
//
// The package also declares the narrow contracts agents call out
// through (Completer, Classifier, Responder, Notifier, RouteDecider)
// so graph nodes stay testable with in-memory fakes, and ParseAs for
// recovering typed values from model output that is almost JSON.
package chat
