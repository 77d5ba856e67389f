// Command batchenc batch-transcodes video files with external encoder
// binaries, tracking completion across runs and archiving sources after
// successful encodes.
package main
