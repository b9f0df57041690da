/*
Package protocol defines the messages exchanged between the crest driver (the interactive parent process) and the crest executor (the restricted child process that owns the headers and settings and performs HTTP requests).

Messages travel as imsg frames over a socket pair. The type of a frame is a MessageType and the payload encoding for every type is fixed; see the Encode and Decode helpers in this package.

The driver sends requests as a batch:

	SET_METHOD, SET_URL, SET_PAYLOAD, DO_REQUEST

and the executor answers with either a single ERROR message, or with STATUS, HEAD and BODY in that order. BODY and ERROR end the exchange.

Settings are replicated one field at a time with the SET_* messages, which are never answered. SHOW and DEL_HEADER are answered with a DONE message once the executor has acted on them, so the driver knows that anything the executor printed has been written before it prompts again. EXIT ends the executor loop; it is never answered either.

Any frame that does not fit this script (unknown type, wrong payload size, value out of range, duplicate STATUS) means the two sides disagree about the state of the stream, and the receiving side aborts.
*/
package protocol
