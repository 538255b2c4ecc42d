// Package ipc defines the wire contract between the dispatcher parent process
// and its worker child processes: the payload record exchanged in both
// directions, the control flags that tag it, and the delimiter-framed codec
// that carries it over stdio byte streams.
//
// Every logical payload crosses the boundary as a single frame:
//
//	JSON-TEXT || "<--- END OF DATA --->" || "\n"
//
// The multi-character delimiter cannot appear inside serialized JSON, which
// makes framing unambiguous over arbitrary chunking. The decoder buffers
// partial frames and never discards leading bytes; a frame whose JSON fails to
// parse yields an error wrapping ErrFrameDecode and the decoder advances past
// the delimiter so subsequent frames still parse.
//
// Basic usage:
//
//	enc := ipc.NewEncoder(stdin)
//	enc.Encode(ipc.NewDispatchRequest(id, 0, "EchoService", "", "Echo", args))
//
//	dec := ipc.NewDecoder(stdout)
//	for {
//		payload, err := dec.Decode()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		if errors.Is(err, ipc.ErrFrameDecode) {
//			continue // malformed frame dropped, stream still usable
//		}
//		// ...
//	}
package ipc
