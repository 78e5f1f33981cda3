// Package tasks builds the work items fed to the dispatcher.
//
// A Source turns a task id into a runnable dispatch.Task. Two sources are
// provided: SimulatedSource sleeps for a random duration and fabricates a
// token count (useful for demos and load tests), and CompletionSource sends
// a templated prompt to an LLM provider and reports the tokens the provider
// actually consumed.
package tasks
