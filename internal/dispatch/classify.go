package dispatch

import (
	"regexp"
	"strings"
)

// InputKind is the dispatch path chosen for one input line.
type InputKind int

const (
	// KindDirective is a leading-colon builtin, handled locally.
	KindDirective InputKind = iota
	// KindContext is a context provider invocation.
	KindContext
	// KindChat is plain conversation, forwarded verbatim.
	KindChat
)

// Classification is the outcome of classifying one raw input line.
type Classification struct {
	Kind InputKind

	// Directive fields, set for KindDirective.
	Directive    string // directive token without the colon
	DirectiveArg string

	// Context provider fields, set for KindContext.
	Command string // the token as typed, resolvable in the registry
	Arg     string // everything after the colon, trimmed
	Leading string // conversational text before the token, trimmed
}

// tokenPattern matches candidate invocations: a colon-free token at
// the start of the line or after whitespace, immediately followed by
// a colon. Natural-language colons elsewhere never match because the
// token must also resolve in the registry.
var tokenPattern = regexp.MustCompile(`(^|\s)([^\s:]+):`)

// Classify picks the dispatch path for raw input. resolves reports
// whether a token names a registered context provider; the function
// itself touches no other state.
//
// Priority order, first match wins: leading-colon directive, then the
// first resolvable `token:` occurrence, then plain chat. Only the
// first resolvable token is treated as a command; any later
// colon-tokens ride along as literal argument text.
func Classify(input string, resolves func(string) bool) Classification {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, ":") {
		name, arg, _ := strings.Cut(trimmed[1:], " ")
		return Classification{
			Kind:         KindDirective,
			Directive:    strings.ToLower(strings.TrimSpace(name)),
			DirectiveArg: strings.TrimSpace(arg),
		}
	}

	for _, m := range tokenPattern.FindAllStringSubmatchIndex(trimmed, -1) {
		tokStart, tokEnd := m[4], m[5]
		token := trimmed[tokStart:tokEnd]
		if !resolves(token) {
			continue
		}
		return Classification{
			Kind:    KindContext,
			Command: token,
			Arg:     strings.TrimSpace(trimmed[tokEnd+1:]),
			Leading: strings.TrimSpace(trimmed[:tokStart]),
		}
	}

	return Classification{Kind: KindChat}
}
