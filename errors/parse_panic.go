package errors

import (
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
)

type uncaughtPanicError struct {
	message string
}

func (p uncaughtPanicError) Error() string {
	return p.message
}

// ParseStack is intended to be used with the results of `debug.Stack`. It
// turns the raw stack dump into an *Error so recovered panics (for example in
// a queue processor) can flow through normal error handling.
func ParseStack(b []byte) (*Error, error) {
	return ParsePanic("panic: recovered\n\n" + string(b))
}

// ParsePanic builds an error object from the output of a go program that
// panicked. The message becomes the error text and the first goroutine's
// frames become the stack trace.
func ParsePanic(text string) (*Error, error) {
	lines := strings.Split(text, "\n")

	var message string
	var frames []StackFrame
	inStack := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if message == "" {
			if strings.HasPrefix(line, "panic: ") {
				message = strings.TrimPrefix(line, "panic: ")
			}
			continue
		}

		if strings.HasPrefix(line, "goroutine ") {
			if inStack {
				// Only the first goroutine is interesting.
				break
			}
			inStack = true
			continue
		}

		if !inStack || line == "" {
			continue
		}

		// Frames come in pairs: a function line followed by an indented
		// file:line line.
		if strings.HasPrefix(line, "\t") && len(frames) > 0 {
			file, lineNo := parseFileLine(strings.TrimSpace(line))
			frames[len(frames)-1].File = file
			frames[len(frames)-1].LineNumber = lineNo
			continue
		}

		pkg, name := splitPanicFuncName(line)
		frames = append(frames, StackFrame{Package: pkg, Name: name})
	}

	if message == "" {
		return nil, Errorf("could not parse panic: no message found")
	}

	return &Error{
		Err:    uncaughtPanicError{message},
		frames: frames,
		code:   codes.Internal,
	}, nil
}

// parseFileLine splits "path/file.go:123 +0x1b" into its file and line parts.
func parseFileLine(s string) (string, int) {
	if idx := strings.Index(s, " "); idx >= 0 {
		s = s[:idx]
	}
	colon := strings.LastIndex(s, ":")
	if colon < 0 {
		return s, 0
	}
	line, err := strconv.Atoi(s[colon+1:])
	if err != nil {
		return s, 0
	}
	return s[:colon], line
}

// splitPanicFuncName splits "pkg/path.Func(0x0, ...)" into package and
// function name.
func splitPanicFuncName(s string) (string, string) {
	if idx := strings.Index(s, "("); idx >= 0 {
		s = s[:idx]
	}
	pkg := ""
	name := s
	if lastslash := strings.LastIndex(name, "/"); lastslash >= 0 {
		pkg = name[:lastslash+1]
		name = name[lastslash+1:]
	}
	if period := strings.Index(name, "."); period >= 0 {
		pkg += name[:period]
		name = name[period+1:]
	}
	return pkg, name
}
