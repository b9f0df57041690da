/*
Package imsg implements a small length-prefixed message channel over a stream connection, normally one end of a socket pair shared between a parent and a child process.

Each frame is a 6-byte header followed by the payload:

	type   uint32, big endian
	length uint16, big endian, header included
	data   length-6 bytes

Frames are self-delimiting so that any number of complete messages can be extracted from a single read, and a partial trailing frame stays buffered until the rest of it arrives.

Writes are buffered too: Compose appends frames to an outgoing buffer and Flush hands that buffer to the connection, so a batch of messages can be sent with one write.

Every error returned by a Channel means that the two peers can no longer be trusted to agree on the stream, and callers are expected to give up on the connection.
*/
package imsg
