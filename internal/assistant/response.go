// Package assistant turns natural-language questions about a result table into
// read-only SQL, runs it and asks the language model to summarise the rows.
package assistant

import (
	"errors"
	"strings"
)

// Kind tags which variant a Response holds.
type Kind int

const (
	// KindComplete responses carry their whole text.
	KindComplete Kind = iota
	// KindStreaming responses yield text chunks until exhausted.
	KindStreaming
)

func (k Kind) String() string {
	if k == KindStreaming {
		return "streaming"
	}
	return "complete"
}

// Stream yields text chunks. It follows the Next/Current/Err iterator shape.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Response is the output of an Engine: either complete text or a stream.
type Response struct {
	Kind   Kind
	text   string
	stream Stream
}

// CompleteResponse wraps finished text.
func CompleteResponse(text string) Response {
	return Response{Kind: KindComplete, text: text}
}

// StreamingResponse wraps a chunk stream.
func StreamingResponse(s Stream) Response {
	return Response{Kind: KindStreaming, stream: s}
}

// Drain returns the full text, calling onChunk (when not nil) for every piece
// as it arrives. A complete response is delivered as a single chunk. A stream
// can be drained only once.
func (r Response) Drain(onChunk func(string)) (string, error) {
	switch r.Kind {
	case KindComplete:
		if onChunk != nil && r.text != "" {
			onChunk(r.text)
		}
		return r.text, nil
	case KindStreaming:
		if r.stream == nil {
			return "", errors.New("streaming response without a stream")
		}
		defer r.stream.Close()
		var sb strings.Builder
		for r.stream.Next() {
			chunk := r.stream.Current()
			sb.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		return sb.String(), r.stream.Err()
	}
	return "", errors.New("unknown response kind")
}

// Text drains the response without observing chunks.
func (r Response) Text() (string, error) {
	return r.Drain(nil)
}

// sliceStream streams a fixed list of chunks.
type sliceStream struct {
	chunks []string
	i      int
}

// NewSliceStream returns a Stream over chunks.
func NewSliceStream(chunks ...string) Stream {
	return &sliceStream{chunks: chunks, i: -1}
}

func (s *sliceStream) Next() bool {
	s.i++
	return s.i < len(s.chunks)
}

func (s *sliceStream) Current() string { return s.chunks[s.i] }
func (s *sliceStream) Err() error      { return nil }
func (s *sliceStream) Close() error    { return nil }
