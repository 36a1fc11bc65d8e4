package providers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const sseDoneToken = "[DONE]"

// groqStream decodes a Groq SSE response body into StreamChunk values.
type groqStream struct {
	body io.ReadCloser
	dec  *sseDecoder
	done bool
}

func newGroqStream(body io.ReadCloser) *groqStream {
	return &groqStream{
		body: body,
		dec:  newSSEDecoder(body),
	}
}

// Recv returns the next chunk, or io.EOF once the stream finishes.
func (s *groqStream) Recv() (StreamChunk, error) {
	for {
		if s.done {
			return StreamChunk{}, io.EOF
		}

		data, err := s.dec.nextData()
		if err != nil {
			if err == io.EOF {
				s.done = true
				s.body.Close()
			}
			return StreamChunk{}, err
		}

		if data == sseDoneToken {
			s.done = true
			s.body.Close()
			return StreamChunk{}, io.EOF
		}

		var chunk groqStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return StreamChunk{}, fmt.Errorf("failed to unmarshal stream chunk: %w", err)
		}

		out := StreamChunk{}
		if len(chunk.Choices) > 0 {
			out.TextDelta = chunk.Choices[0].Delta.Content
		}
		if chunk.XGroq != nil && chunk.XGroq.Usage != nil {
			cpy := *chunk.XGroq.Usage
			out.Usage = &cpy
		}

		// Role-only or keep-alive chunks carry nothing for the caller.
		if out.TextDelta == "" && out.Usage == nil {
			continue
		}

		return out, nil
	}
}

// Close releases the underlying response body. Safe to call after EOF.
func (s *groqStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.body.Close()
}

// sseDecoder yields concatenated "data:" payloads from a Server-Sent
// Events stream.
type sseDecoder struct {
	r   *bufio.Reader
	buf []string
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{r: bufio.NewReader(r)}
}

// nextData returns the next SSE data payload joined by "\n". It returns
// io.EOF when the underlying reader ends.
func (d *sseDecoder) nextData() (string, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if len(d.buf) > 0 {
				out := strings.Join(d.buf, "\n")
				d.buf = d.buf[:0]
				return out, nil
			}
			if err == io.EOF {
				return "", io.EOF
			}
			continue
		}

		if strings.HasPrefix(line, "data:") {
			d.buf = append(d.buf, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}

		if err == io.EOF {
			if len(d.buf) > 0 {
				out := strings.Join(d.buf, "\n")
				d.buf = d.buf[:0]
				return out, nil
			}
			return "", io.EOF
		}
	}
}

// Verify interface
var _ ChatStream = (*groqStream)(nil)
