package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

// FlushingWriter is a zapcore.WriteSyncer that flushes buffered destinations after every write.
type FlushingWriter struct {
	mutex  sync.Mutex
	writer io.Writer
}

// NewFlushingWriter wraps writer. Wrapping an existing FlushingWriter returns it unchanged.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if existing, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existing
	}
	return &FlushingWriter{writer: writer}
}

// Write serializes writes and flushes the destination when it supports flushing.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return len(data), nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushable, canFlush := flushingWriter.writer.(flusher); canFlush {
		return bytesWritten, flushable.Flush()
	}
	return bytesWritten, nil
}

// Sync forwards to the destination when it can sync.
func (flushingWriter *FlushingWriter) Sync() error {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return nil
	}
	if syncable, canSync := flushingWriter.writer.(syncer); canSync {
		return syncable.Sync()
	}
	return nil
}
