// Package audio holds synthesized audio artifacts: binary payloads tagged
// with a media type, their data URI text encoding, and the assembler that
// joins per-chunk segments into one playable MP3 file.
package audio
