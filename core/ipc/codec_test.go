package ipc_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul-17/dispatcher/core/ipc"
)

// chunkReader serves its content in fixed-size chunks to simulate arbitrary
// stream chunking.
type chunkReader struct {
	data  []byte
	size  int
	index int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.index >= len(r.data) {
		return 0, io.EOF
	}
	end := r.index + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.index:end])
	r.index += n
	return n, nil
}

func encodeFrames(t *testing.T, payloads ...*ipc.Payload) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc := ipc.NewEncoder(&buf)
	for _, p := range payloads {
		require.NoError(t, enc.Encode(p))
	}
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	args, err := ipc.EncodeArguments([]any{"hello", 42, map[string]string{"k": "v"}})
	require.NoError(t, err)

	original := ipc.NewDispatchRequest("id-1", 3, "EchoService", "tenant-a", "Echo", args)

	var buf bytes.Buffer
	require.NoError(t, ipc.NewEncoder(&buf).Encode(original))
	assert.Contains(t, buf.String(), ipc.Delimiter)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	decoded, err := ipc.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeArbitraryChunking(t *testing.T) {
	t.Parallel()

	payloads := []*ipc.Payload{
		ipc.NewDispatchRequest("id-1", 0, "SvcA", "", "One", nil),
		ipc.NewDispatchResponse("id-2", 1, []byte(`"result"`)),
		ipc.NewErrorResponse("id-3", 2, ipc.RemoteError{Message: "boom"}),
	}
	data := encodeFrames(t, payloads...)

	for _, chunkSize := range []int{1, 2, 3, 7, 16, len(data)} {
		dec := ipc.NewDecoder(&chunkReader{data: data, size: chunkSize})

		for i, want := range payloads {
			got, err := dec.Decode()
			require.NoError(t, err, "chunk size %d, frame %d", chunkSize, i)
			assert.Equal(t, want, got)
		}

		_, err := dec.Decode()
		assert.ErrorIs(t, err, io.EOF, "chunk size %d", chunkSize)
	}
}

func TestDecodeBuffersPartialFrame(t *testing.T) {
	t.Parallel()

	data := encodeFrames(t,
		ipc.NewDispatchResponse("id-1", 0, []byte(`1`)),
		ipc.NewDispatchResponse("id-2", 0, []byte(`2`)),
		ipc.NewDispatchResponse("id-3", 0, []byte(`3`)),
	)

	// Two complete frames plus the beginning of the third in one burst.
	frames := bytes.SplitAfter(data, []byte(ipc.Delimiter+"\n"))
	require.Len(t, frames, 4) // 3 frames + empty tail
	burst := append(append(append([]byte(nil), frames[0]...), frames[1]...), frames[2][:5]...)
	remainder := frames[2][5:]

	pr, pw := io.Pipe()
	dec := ipc.NewDecoder(pr)

	go func() {
		pw.Write(burst)
		pw.Write(remainder)
		pw.Close()
	}()

	first, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.PayloadID)

	second, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "id-2", second.PayloadID)

	third, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "id-3", third.PayloadID)

	_, err = dec.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeRecoversAfterMalformedFrame(t *testing.T) {
	t.Parallel()

	good := ipc.NewDispatchResponse("id-ok", 0, []byte(`"fine"`))
	var buf bytes.Buffer
	buf.WriteString("{not json" + ipc.Delimiter + "\n")
	require.NoError(t, ipc.NewEncoder(&buf).Encode(good))

	dec := ipc.NewDecoder(&buf)

	_, err := dec.Decode()
	require.ErrorIs(t, err, ipc.ErrFrameDecode)

	decoded, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, "id-ok", decoded.PayloadID)
}

func TestDecodeOversizedFrame(t *testing.T) {
	t.Parallel()

	dec := ipc.NewDecoder(
		strings.NewReader(strings.Repeat("x", 256)),
		ipc.WithMaxFrameSize(64),
	)

	_, err := dec.Decode()
	assert.ErrorIs(t, err, ipc.ErrFrameTooLarge)
}

func TestDecodeUnexpectedEOF(t *testing.T) {
	t.Parallel()

	dec := ipc.NewDecoder(strings.NewReader(`{"flag":1`))

	_, err := dec.Decode()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := ipc.NewDecoder(strings.NewReader("")).Decode()
	assert.ErrorIs(t, err, io.EOF)
}
