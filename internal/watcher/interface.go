package watcher

import "context"

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// AudioExtensions lists the file extensions treated as new episodes.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac", ".opus"}
