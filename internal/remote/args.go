package remote

// Arg is a command argument: either a single Token or a nested Sequence.
// The interface is sealed; Token and Sequence are the only implementations.
type Arg interface {
	appendTokens(dst []string) []string
}

// Token is a single wire token, e.g. "CHANNELUP"
type Token string

func (t Token) appendTokens(dst []string) []string {
	return append(dst, string(t))
}

// Sequence is an ordered list of arguments, possibly nested
type Sequence []Arg

func (s Sequence) appendTokens(dst []string) []string {
	for _, arg := range s {
		if arg == nil {
			continue
		}
		dst = arg.appendTokens(dst)
	}
	return dst
}

// Seq builds a Sequence from args
func Seq(args ...Arg) Sequence {
	return Sequence(args)
}

// Tokens builds a flat Sequence from token strings
func Tokens(tokens ...string) Sequence {
	seq := make(Sequence, len(tokens))
	for i, t := range tokens {
		seq[i] = Token(t)
	}
	return seq
}

// Flatten expands args depth-first, preserving left-to-right order
func Flatten(args ...Arg) []string {
	return Sequence(args).appendTokens(nil)
}
