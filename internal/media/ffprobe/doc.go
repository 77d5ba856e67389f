// Package ffprobe wraps the external ffprobe binary used as the
// stream-inspection oracle for encoder selection decisions.
package ffprobe
