package worker

import "errors"

var (
	// ErrAlreadySpawned is returned by Spawn when the endpoint has already
	// been spawned or is spawning.
	ErrAlreadySpawned = errors.New("worker already spawned")

	// ErrNotSpawned is returned by operations that need a running process
	// before Spawn has succeeded.
	ErrNotSpawned = errors.New("worker not spawned")
)
