// Package encoder turns one resolved job into a runnable external transcode
// invocation. Three variants exist: software (transcode-video), hardware
// (other-transcode with VideoToolbox), and passthrough (a plain byte copy).
// Selection walks an ordered candidate list and falls back to the next
// variant when one rejects the job's option set.
package encoder
