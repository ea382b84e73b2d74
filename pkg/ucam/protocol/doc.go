// Package protocol provides the uCAM-III command frames and reply matching.
//
// Every command and reply is a 6-byte frame starting with the 0xAA marker,
// followed by an opcode and four parameter bytes. Multi-byte parameters
// are little-endian.
//
// Replies are matched against templates in which a zero byte is a wildcard,
// so one template covers every ack counter the camera may put in a reply.
// See Matcher for how noise is handled.
//
// Image data is not framed this way: each data package is
// [4-byte header][payload][2-byte trailer].
package protocol
