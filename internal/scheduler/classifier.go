package scheduler

import "strings"

// Mode is the execution mode chosen for an incoming query.
type Mode string

const (
	ModeSync  Mode = "sync"  // answered inline in the request
	ModeAsync Mode = "async" // acknowledged with a pollable task
)

// Classifier decides whether a query is answered inline or handed to a
// background task. The scheduler treats it as opaque, so deployments can
// swap in their own policy.
type Classifier interface {
	Classify(query string) Mode
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(query string) Mode

// Classify implements Classifier.
func (f ClassifierFunc) Classify(query string) Mode { return f(query) }

// quickPhrases are queries answerable without real work. Matched on the
// lowercased query as prefix or whole-word hit.
var quickPhrases = []string{
	"hello",
	"hi",
	"help",
	"ping",
	"capabilities",
	"what can you do",
}

// KeywordClassifier is the default heuristic: conversational queries and
// very short ones run inline, everything else becomes a task. The bias is
// async: a query earns the sync path, it does not fall into it.
type KeywordClassifier struct {
	// MaxSyncLen is the byte length at or under which a query without a
	// keyword match still runs inline.
	MaxSyncLen int
}

// Classify implements Classifier. Keywords are checked before length so
// a long greeting still answers inline.
func (c KeywordClassifier) Classify(query string) Mode {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	for _, phrase := range quickPhrases {
		if trimmed == phrase || strings.HasPrefix(trimmed, phrase+" ") {
			return ModeSync
		}
	}
	if len(trimmed) <= c.MaxSyncLen {
		return ModeSync
	}
	return ModeAsync
}
