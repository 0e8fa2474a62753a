package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decoding errors.
var (
	ErrSyntax  = errors.New("payload syntax")
	ErrLength  = errors.New("payload length")
	ErrMagic   = errors.New("payload magic")
	ErrVersion = errors.New("payload version")
)

// ListFormat is the text form the game engine parses: a bracketed,
// comma-and-space separated list of integers such as "[100, 430, 0]".
// The format has no marker for the gesture signal, so decoding relies on
// WithSignal.
type ListFormat struct {
	WithSignal bool
}

// Name implements Format.
func (ListFormat) Name() string { return FormatList }

// Marshal implements Format.
func (ListFormat) Marshal(p Payload) ([]byte, error) {
	values := p.Values()

	var b strings.Builder
	b.Grow(len(values)*5 + 2)
	b.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(']')

	return []byte(b.String()), nil
}

// Unmarshal implements Format.
func (f ListFormat) Unmarshal(data []byte) (Payload, error) {
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return Payload{}, fmt.Errorf("%w: missing brackets", ErrSyntax)
	}

	body := strings.TrimSpace(text[1 : len(text)-1])
	var values []int
	if body != "" {
		fields := strings.Split(body, ",")
		values = make([]int, 0, len(fields))
		for i, field := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return Payload{}, fmt.Errorf("%w: element %d: %v", ErrSyntax, i, err)
			}
			values = append(values, v)
		}
	}

	return splitValues(values, f.WithSignal)
}
